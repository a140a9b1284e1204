package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sourcemind/aiclient"
	"sourcemind/config"
	"sourcemind/editor"
	"sourcemind/fsapi"
	"sourcemind/logging"
	"sourcemind/tui"
	"sourcemind/workspace"
)

var (
	debugLogging bool
	serviceURL   string
)

var rootCmd = &cobra.Command{
	Use:   "sourcemind [path]",
	Short: "SourceMind is a terminal code editor with AI inline edits",
	Long: `SourceMind is a terminal code editor backed by a local AI service.
Open a project folder, browse and edit files, and ask the service to rewrite
a selection. Every suggestion is shown as a diff you accept or reject.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
	Run: func(cmd *cobra.Command, args []string) {
		root, cfg, err := loadWorkspace(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if err := workspace.EnsureDir(root); err != nil {
			fmt.Printf("Warning: Could not create %s directory: %v\n", config.DirName, err)
		}

		session := newSession(cfg)
		defer session.Close()

		logging.L().Info("starting editor",
			logging.String("root", root),
			logging.String("service_url", cfg.ServiceURL))

		if err := tui.Run(cmd.Context(), session, cfg.Theme, root); err != nil {
			fmt.Printf("Error starting TUI: %v\n", err)
			os.Exit(1)
		}
	},
}

// Execute runs the root command. Commands are cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Write debug logs")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service-url", "", "Base URL of the AI service (overrides config)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(askCmd)
}

// loadWorkspace resolves the project root from the optional path argument and
// loads its configuration
func loadWorkspace(args []string) (string, *config.Config, error) {
	var (
		root string
		err  error
	)
	if len(args) > 0 {
		root, err = workspace.Resolve(args[0])
	} else {
		root, err = workspace.DetectWorkspace()
	}
	if err != nil {
		return "", nil, fmt.Errorf("detecting workspace: %w", err)
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return "", nil, fmt.Errorf("loading config: %w", err)
	}
	if serviceURL != "" {
		cfg.ServiceURL = serviceURL
	}
	return root, cfg, nil
}

// initLogging sends logs to the configured file. The terminal belongs to the UI.
func initLogging() error {
	wd, _ := workspace.DetectWorkspace()
	cfg, err := config.LoadConfig(wd)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	level := cfg.LogLevel
	if debugLogging {
		level = "debug"
	}
	return logging.Init(logging.Config{
		Level:      level,
		Format:     "json",
		OutputPath: cfg.ResolvedLogFile(),
	})
}

func newClient(cfg *config.Config) *aiclient.Client {
	return aiclient.NewClient(cfg.ServiceURL)
}

func newSession(cfg *config.Config) *editor.Session {
	return editor.NewSession(fsapi.NewLocal(cfg.ShowHidden, cfg.RespectGitIgnore), newClient(cfg), cfg)
}
