package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/misoul/internal/export"
	"github.com/rcliao/misoul/internal/view"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export [term]",
		Short: "Export memories to a file",
		Long: "Export the owner's memories, newest first, to {owner}_memories_{date}.txt.\n" +
			"With --json the export keeps media bytes and can be read back by import.",
		Run: runExport,
	}

	cmd.Flags().Bool("json", false, "Write a JSON archive instead of plain text")
	cmd.Flags().StringP("out", "o", "", "Output directory (default: export_dir from config)")
	cmd.Flags().Bool("stdout", false, "Write the export to stdout instead of a file")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	asJSON, _ := cmd.Flags().GetBool("json")
	outDir, _ := cmd.Flags().GetString("out")
	toStdout, _ := cmd.Flags().GetBool("stdout")
	if outDir == "" {
		outDir = cfg.ExportDir
	}

	repo, _, done := openRepo(cmd.Context())
	defer done()

	memories := view.FilterBySearchTerm(repo.Memories(), strings.Join(args, " "))
	now := time.Now()

	f := export.ExportText(memories, repo.Owner(), now)
	if asJSON {
		var err error
		if f, err = export.ExportJSON(memories, repo.Owner(), now); err != nil {
			exitErr("export", err)
		}
	}

	if toStdout {
		cmd.OutOrStdout().Write(f.Data)
		return
	}
	path, err := f.WriteTo(outDir)
	if err != nil {
		exitErr("export", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"path":%q,"media_type":%q,"memories":%d}`+"\n", path, f.MediaType, len(memories))
}
