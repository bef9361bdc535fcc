package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/misoul/internal/view"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search memories by text, description, mood or summary",
		Long:  "Case-insensitive substring search over the owner's memories. An empty term matches everything.",
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 0, "Max results (0 for all)")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	term := strings.Join(args, " ")

	repo, res, done := openRepo(cmd.Context())
	defer done()

	results := view.FilterBySearchTerm(repo.Memories(), term)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	printMemories(cmd.OutOrStdout(), results, res)
}
