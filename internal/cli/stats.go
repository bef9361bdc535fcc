package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/rcliao/misoul/internal/store"
	"github.com/rcliao/misoul/internal/view"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Long:  "Show database statistics for the local database, or the owner's dashboard counts when using a remote store.",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	if cfg.IsRemote() {
		runRemoteStats(cmd)
		return
	}

	s, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), cfg.DBPath, cfg.Owner)
	if err != nil {
		exitErr("stats", err)
	}

	if formatFlag != "text" {
		printJSON(cmd.OutOrStdout(), stats)
		return
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "database: %s (%s)\n", stats.DBPath, humanize.Bytes(uint64(stats.DBSizeBytes)))
	fmt.Fprintf(w, "memories: %s, media: %s\n", humanize.Comma(int64(stats.TotalMemories)), humanize.Bytes(uint64(stats.MediaBytes)))
	for _, o := range stats.Owners {
		fmt.Fprintf(w, "  %-20s %6d memories, %d media\n", o.Owner, o.Count, o.Media)
	}
}

func runRemoteStats(cmd *cobra.Command) {
	repo, _, done := openRepo(cmd.Context())
	defer done()

	d := view.BuildDashboard(repo.Memories(), "", time.Local)
	if formatFlag != "text" {
		printJSON(cmd.OutOrStdout(), struct {
			Owner  string           `json:"owner"`
			Total  int              `json:"total"`
			Days   int              `json:"days"`
			ByKind []view.KindCount `json:"by_kind"`
			Moods  []view.MoodCount `json:"moods"`
		}{repo.Owner(), d.Total, len(d.Days), d.ByKind, d.Moods})
		return
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %s over %s\n", repo.Owner(),
		english.Plural(d.Total, "memory", "memories"), english.Plural(len(d.Days), "day", "days"))
	for _, kc := range d.ByKind {
		fmt.Fprintf(w, "  %-6s %d\n", kc.Kind, kc.Count)
	}
}
