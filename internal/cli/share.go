package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/export"
)

func init() {
	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Share a memory",
		Long: "Write a memory's share payload (title, text and, for images, the picture) into\n" +
			"share_dir/<id>. With --text-only attachments are dropped.",
		Args: cobra.ExactArgs(1),
		Run:  runShare,
	}

	cmd.Flags().String("dir", "", "Share directory (default: share_dir from config)")
	cmd.Flags().Bool("text-only", false, "Share the text without attachments")

	RootCmd.AddCommand(cmd)
}

func runShare(cmd *cobra.Command, args []string) {
	id := args[0]
	dir, _ := cmd.Flags().GetString("dir")
	textOnly, _ := cmd.Flags().GetBool("text-only")
	if dir == "" {
		dir = cfg.ShareDir
	}

	repo, _, done := openRepo(cmd.Context())
	defer done()

	m, ok := repo.Get(id)
	if !ok {
		exitErr("share", errs.NewValidation(fmt.Sprintf("memory %s not found for %s", id, repo.Owner())))
	}

	platform := &export.DirPlatform{Root: dir, Name: id, TextOnly: textOnly}
	if err := export.Share(cmd.Context(), platform, m); err != nil {
		// A failed share leaves the vault untouched; report and carry on.
		fmt.Fprintln(cmd.ErrOrStderr(), errs.UserMessage(err))
		fmt.Fprintf(cmd.OutOrStdout(), `{"ok":false,"id":%q}`+"\n", id)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%q,"dir":%q}`+"\n", id, platform.Dir())
}
