package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories, newest first",
		Run:   runList,
	}

	cmd.Flags().String("kind", "", "Only show memories of this kind")
	cmd.Flags().IntP("limit", "l", 0, "Max results (0 for all)")
	cmd.Flags().Bool("ids-only", false, "Only output memory ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	kindStr, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	var kind model.Kind
	if kindStr != "" {
		k, err := model.ParseKind(kindStr)
		if err != nil {
			exitErr("list", errs.NewValidation(err.Error()))
		}
		kind = k
	}

	repo, res, done := openRepo(cmd.Context())
	defer done()

	memories := repo.Memories()
	if kind != "" {
		filtered := memories[:0]
		for _, m := range memories {
			if m.ContentType == kind {
				filtered = append(filtered, m)
			}
		}
		memories = filtered
	}
	if limit > 0 && len(memories) > limit {
		memories = memories[:limit]
	}

	if idsOnly {
		for _, m := range memories {
			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
		}
		return
	}
	printMemories(cmd.OutOrStdout(), memories, res)
}
