package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/misoul/internal/export"
	"github.com/rcliao/misoul/internal/form"
	"github.com/rcliao/misoul/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [pattern]...",
		Short: "Import memories from JSON exports",
		Long: "Import memories from JSON archives as produced by `export --json`. Arguments are file\n" +
			"paths or glob patterns (`exports/**/*.json`); with none the archive is read from stdin.\n" +
			"Memories are re-created for the active owner, oldest first; mood and summary are derived again.",
		Run: runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var memories []model.Memory
	if len(args) == 0 {
		archive, err := export.ReadArchive(os.Stdin)
		if err != nil {
			exitErr("parse archive", err)
		}
		memories = archive.Memories
	}
	for _, path := range expandPatterns(args) {
		archive, err := readArchiveFile(path)
		if err != nil {
			exitErr("parse archive", err)
		}
		logger.Debug("archive read", zap.String("path", path), zap.Int("memories", len(archive.Memories)))
		memories = append(memories, archive.Memories...)
	}

	repo, _, done := openRepo(cmd.Context())
	defer done()

	sort.SliceStable(memories, func(i, j int) bool { return memories[i].Timestamp < memories[j].Timestamp })

	imported := 0
	for _, m := range memories {
		if _, err := repo.Create(cmd.Context(), importState(m)); err != nil {
			logger.Warn("import stopped", zap.String("id", m.ID), zap.Error(err))
			fmt.Fprintf(cmd.OutOrStdout(), `{"ok":false,"imported":%d}`+"\n", imported)
			exitErr("import", err)
		}
		imported++
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d}`+"\n", imported)
}

// expandPatterns resolves glob patterns, keeping plain paths as given.
func expandPatterns(patterns []string) []string {
	var paths []string
	seen := map[string]bool{}
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			exitErr("bad pattern "+p, err)
		}
		if len(matches) == 0 {
			matches = []string{p}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths
}

func readArchiveFile(path string) (export.Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return export.Archive{}, err
	}
	defer f.Close()
	return export.ReadArchive(f)
}

func importState(m model.Memory) form.State {
	s := form.New().WithKind(m.ContentType)
	switch c := m.Content.(type) {
	case model.Text:
		return s.WithText(c.Body())
	case model.Media:
		return s.WithDescription(c.Description()).WithFile(form.FileFromBytes(m.ID, c.Data()))
	}
	return s
}
