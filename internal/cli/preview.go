package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/misoul/internal/form"
	"github.com/rcliao/misoul/internal/model"
	"github.com/rcliao/misoul/internal/preview"
)

func init() {
	cmd := &cobra.Command{
		Use:   "preview <file>...",
		Short: "Preview an image before saving it",
		Long: "Decode image files into a data URL the way the compose form does. When several\n" +
			"files are given each selection replaces the previous one and only the last is shown.",
		Args: cobra.MinimumNArgs(1),
		Run:  runPreview,
	}

	cmd.Flags().StringP("kind", "k", "Image", "Kind the files are selected under; only Image previews")
	cmd.Flags().Bool("full", false, "Print the whole data URL")

	RootCmd.AddCommand(cmd)
}

func runPreview(cmd *cobra.Command, args []string) {
	kindStr, _ := cmd.Flags().GetString("kind")
	full, _ := cmd.Flags().GetBool("full")

	kind, err := model.ParseKind(kindStr)
	if err != nil {
		exitErr("preview", err)
	}

	m := preview.NewManager(preview.WithLogger(logger))
	defer m.Close()

	var last *form.File
	for _, path := range args {
		f, err := form.FileFromPath(path)
		if err != nil {
			exitErr("preview", err)
		}
		m.Select(kind, f)
		last = f
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()
	if err := m.Wait(ctx); err != nil {
		exitErr("preview", err)
	}

	p, ok := m.Current()
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), `{"previewing":false,"kind":%q}`+"\n", kind)
		return
	}
	url := p.DataURL
	if !full && len(url) > 64 {
		url = url[:64] + "..."
	}
	if formatFlag == "text" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, generation %d)\n%s\n", p.FileName, humanize.Bytes(uint64(last.Size)), p.Generation, url)
		return
	}
	printJSON(cmd.OutOrStdout(), struct {
		Previewing bool      `json:"previewing"`
		File       string    `json:"file"`
		Bytes      int64     `json:"bytes"`
		Generation uint64    `json:"generation"`
		DataURL    string    `json:"data_url"`
		At         time.Time `json:"at"`
	}{true, p.FileName, last.Size, p.Generation, url, time.Now()})
}
