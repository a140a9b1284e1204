package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"sourcemind/fsapi"
	"sourcemind/treeview"
)

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Print the project tree",
	Long:  `Print the project tree as the editor sidebar shows it, fully expanded`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root, cfg, err := loadWorkspace(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		api := fsapi.NewLocal(cfg.ShowHidden, cfg.RespectGitIgnore)
		if err := printTree(cmd.OutOrStdout(), api, root); err != nil {
			fmt.Printf("Error listing project: %v\n", err)
		}
	},
}

func printTree(w io.Writer, api fsapi.API, root string) error {
	nodes, err := api.ListDirectoryTree(root)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s/\n", filepath.Base(root))
	rows := treeview.ExpandAll(nodes)
	if len(rows) == 0 {
		fmt.Fprintln(w, "  "+treeview.Placeholder)
		return nil
	}
	for _, line := range treeview.PlainLines(rows) {
		fmt.Fprintln(w, "  "+line)
	}
	return nil
}
