package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/misoul/internal/view"
)

func init() {
	cmd := &cobra.Command{
		Use:   "moods [term]",
		Short: "Show the mood distribution",
		Run:   runMoods,
	}

	RootCmd.AddCommand(cmd)
}

func runMoods(cmd *cobra.Command, args []string) {
	repo, _, done := openRepo(cmd.Context())
	defer done()

	filtered := view.FilterBySearchTerm(repo.Memories(), strings.Join(args, " "))
	dist := view.MoodDistribution(filtered)

	if formatFlag != "text" {
		if dist == nil {
			dist = []view.MoodCount{}
		}
		printJSON(cmd.OutOrStdout(), dist)
		return
	}
	w := cmd.OutOrStdout()
	if len(dist) == 0 {
		fmt.Fprintln(w, "No moods recorded yet.")
		return
	}
	total := 0
	for _, mc := range dist {
		total += mc.Count
	}
	for _, mc := range dist {
		pct := float64(mc.Count) * 100 / float64(total)
		fmt.Fprintf(w, "%-9s %s %5s%%  %s\n", mc.Mood, mc.Color, humanize.FtoaWithDigits(pct, 1), strings.Repeat("#", mc.Count))
	}
}
