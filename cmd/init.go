package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sourcemind/config"
	"sourcemind/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize sourcemind configuration for current directory",
	Long:  `Write a project-specific configuration with default values`,
	Run: func(cmd *cobra.Command, args []string) {
		workspacePath, err := workspace.DetectWorkspace()
		if err != nil {
			fmt.Printf("Error detecting workspace: %v\n", err)
			return
		}

		cfg := config.DefaultConfig()
		if err := config.SaveLocalConfig(workspacePath, cfg); err != nil {
			fmt.Printf("Error saving local config: %v\n", err)
			return
		}

		fmt.Printf("Initialized sourcemind for %s\n", workspacePath)
		fmt.Printf("Created %s with default settings\n", filepath.Join(config.DirName, "config.json"))
	},
}
