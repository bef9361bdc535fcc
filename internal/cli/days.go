package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/misoul/internal/view"
)

func init() {
	cmd := &cobra.Command{
		Use:   "days [term]",
		Short: "Show memories grouped by calendar day",
		Run:   runDays,
	}

	RootCmd.AddCommand(cmd)
}

func runDays(cmd *cobra.Command, args []string) {
	repo, _, done := openRepo(cmd.Context())
	defer done()

	filtered := view.FilterBySearchTerm(repo.Memories(), strings.Join(args, " "))
	printDays(cmd.OutOrStdout(), view.GroupByCalendarDate(filtered))
}
