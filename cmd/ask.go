package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var askFile string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the AI service about the project",
	Long:  `Ask a free-form question. With --file the file's content is sent as the code in focus.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, cfg, err := loadWorkspace(nil)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		var contextCode string
		if askFile != "" {
			data, err := os.ReadFile(askFile)
			if err != nil {
				fmt.Printf("Error reading %s: %v\n", askFile, err)
				return
			}
			contextCode = string(data)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.EditTimeout())
		defer cancel()

		answer, err := newClient(cfg).Ask(ctx, strings.Join(args, " "), contextCode)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println(answer)
	},
}

func init() {
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "File sent as context")
}
