package cli

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/form"
	"github.com/rcliao/misoul/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [text]",
		Short: "Store a memory",
		Long: "Store a memory. Text memories take their content from the positional args or stdin.\n" +
			"Media memories need --kind, --file and --desc.",
		Run: runPut,
	}

	cmd.Flags().StringP("kind", "k", "Text", "Kind: Text, Image, Video, Audio, File")
	cmd.Flags().String("file", "", "Media file to attach")
	cmd.Flags().String("desc", "", "Description of the media")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	kindStr, _ := cmd.Flags().GetString("kind")
	filePath, _ := cmd.Flags().GetString("file")
	desc, _ := cmd.Flags().GetString("desc")

	kind, err := model.ParseKind(kindStr)
	if err != nil {
		exitErr("put", errs.NewValidation(err.Error()))
	}

	state := form.New().WithKind(kind).WithDescription(desc)
	if kind == model.KindText {
		state = state.WithText(readText(args))
	}
	if filePath != "" {
		f, err := form.FileFromPath(filePath)
		if err != nil {
			exitErr("put", err)
		}
		state = state.WithFile(f)
	}

	repo, res, done := openRepo(cmd.Context())
	defer done()

	mem, err := repo.Create(cmd.Context(), state)
	if err != nil {
		exitErr("put", err)
	}

	row := toRow(mem, res)
	if formatFlag == "text" {
		cmd.Println(repo.Status())
		printRow(cmd.OutOrStdout(), row)
		return
	}
	printJSON(cmd.OutOrStdout(), row)
}

// readText joins the positional args, falling back to piped stdin.
func readText(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if stat != nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return strings.TrimRight(string(b), "\n")
	}
	return ""
}
