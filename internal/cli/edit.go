package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/form"
	"github.com/rcliao/misoul/internal/model"
	"github.com/rcliao/misoul/internal/repository"
)

func init() {
	cmd := &cobra.Command{
		Use:   "edit <id> [text]",
		Short: "Edit a memory's text or media description",
		Long: "Replace the text of a Text memory or the description of a media memory.\n" +
			"Use --kind Text to turn a media memory into a text memory.",
		Args: cobra.MinimumNArgs(1),
		Run:  runEdit,
	}

	cmd.Flags().StringP("kind", "k", "", "New kind (default: keep the current kind)")

	RootCmd.AddCommand(cmd)
}

func runEdit(cmd *cobra.Command, args []string) {
	id := args[0]
	kindStr, _ := cmd.Flags().GetString("kind")
	text := readText(args[1:])

	repo, _, done := openRepo(cmd.Context())
	defer done()

	current, ok := repo.Get(id)
	if !ok {
		exitErr("edit", errs.NewValidation(fmt.Sprintf("memory %s not found for %s", id, repo.Owner())))
	}

	state := form.New().Editing(current)
	if kindStr != "" {
		kind, err := model.ParseKind(kindStr)
		if err != nil {
			exitErr("edit", errs.NewValidation(err.Error()))
		}
		state = state.WithKind(kind)
	}
	switch {
	case text == "":
		if state.Kind == model.KindText && current.ContentType != model.KindText {
			state = state.WithText(current.Description())
		}
	case state.Kind == model.KindText:
		state = state.WithText(text)
	default:
		state = state.WithDescription(text)
	}

	if err := repo.Edit(cmd.Context(), state); err != nil {
		if !errors.Is(err, repository.ErrStaleCache) {
			exitErr("edit", err)
		}
		// Saved, but the refetch failed; the row printed below is the old one.
		logger.Warn("edit saved but refresh failed", zap.Error(err))
		fmt.Fprintln(cmd.ErrOrStderr(), repo.Status())
	}

	updated, _ := repo.Get(id)
	if formatFlag == "text" {
		cmd.Println(repo.Status())
		printRow(cmd.OutOrStdout(), toRow(updated, nil))
		return
	}
	printJSON(cmd.OutOrStdout(), toRow(updated, nil))
}
