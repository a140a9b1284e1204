package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sourcemind/config"
	"sourcemind/workspace"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sourcemind configuration",
	Long:  `List, get and set configuration values for sourcemind`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every configuration value",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, err := workspaceConfig()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		for _, key := range config.Keys {
			value, _ := cfg.Get(key)
			fmt.Printf("%s = %v\n", key, value)
		}
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		cfg, _, err := workspaceConfig()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		value, err := cfg.Get(key)
		if err != nil {
			fmt.Printf("Error getting config value: %v\n", err)
			return
		}

		fmt.Printf("%s = %v\n", key, value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value for this project",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]

		workspacePath, err := workspace.DetectWorkspace()
		if err != nil {
			fmt.Printf("Error detecting workspace: %v\n", err)
			return
		}

		if err := config.SetLocal(workspacePath, key, value); err != nil {
			fmt.Printf("Error setting config value: %v\n", err)
			return
		}

		fmt.Printf("Set %s = %s\n", key, value)
	},
}

// workspaceConfig loads the configuration of the current workspace
func workspaceConfig() (*config.Config, string, error) {
	workspacePath, err := workspace.DetectWorkspace()
	if err != nil {
		return nil, "", fmt.Errorf("detecting workspace: %w", err)
	}
	cfg, err := config.LoadConfig(workspacePath)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, workspacePath, nil
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
