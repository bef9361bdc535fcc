package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a memory",
		Long:  "Delete a memory permanently. Asks for confirmation unless --yes is given.",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	cmd.Flags().BoolP("yes", "y", false, "Delete without asking")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	id := args[0]
	yes, _ := cmd.Flags().GetBool("yes")

	repo, _, done := openRepo(cmd.Context())
	defer done()

	if !yes && !confirm(cmd, "Are you sure you want to delete this memory? [y/N] ") {
		fmt.Fprintf(cmd.OutOrStdout(), `{"ok":false,"id":%q,"deleted":false}`+"\n", id)
		return
	}

	if err := repo.Remove(cmd.Context(), id); err != nil {
		exitErr("rm", err)
	}

	if formatFlag == "text" {
		cmd.Println(repo.Status())
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%q,"deleted":true}`+"\n", id)
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
