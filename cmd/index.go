package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"sourcemind/fsapi"
	"sourcemind/language"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Ask the AI service to index a project",
	Long:  `Send the project folder to the AI service so questions and edits can use it as context`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root, cfg, err := loadWorkspace(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.IndexingTimeout())
		defer cancel()

		fmt.Printf("Indexing %s via %s\n", root, cfg.ServiceURL)
		start := time.Now()

		result, err := newClient(cfg).IndexProject(ctx, root)
		if err != nil {
			fmt.Printf("Error indexing project: %v\n", err)
			return
		}

		fmt.Printf("Index built in %v\n", time.Since(start).Round(time.Millisecond))
		if result.FilesIndexed > 0 {
			fmt.Printf("Indexed %d files\n", result.FilesIndexed)
		}

		nodes, err := fsapi.NewLocal(cfg.ShowHidden, cfg.RespectGitIgnore).ListDirectoryTree(root)
		if err != nil {
			fmt.Printf("Warning: Could not list project: %v\n", err)
			return
		}
		printBreakdown(cmd.OutOrStdout(), nodes)
	},
}

type langCount struct {
	tag   language.Tag
	count int
}

// languageBreakdown counts the files below nodes per language, most common first
func languageBreakdown(nodes []fsapi.TreeNode) []langCount {
	counts := make(map[language.Tag]int)
	var walk func([]fsapi.TreeNode)
	walk = func(nodes []fsapi.TreeNode) {
		for _, n := range nodes {
			if n.IsDir {
				walk(n.Children)
				continue
			}
			counts[language.Classify(n.Path)]++
		}
	}
	walk(nodes)

	langs := make([]langCount, 0, len(counts))
	for tag, count := range counts {
		langs = append(langs, langCount{tag, count})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].count != langs[j].count {
			return langs[i].count > langs[j].count
		}
		return langs[i].tag < langs[j].tag
	})
	return langs
}

func printBreakdown(w io.Writer, nodes []fsapi.TreeNode) {
	langs := languageBreakdown(nodes)
	if len(langs) == 0 {
		return
	}

	total := 0
	for _, l := range langs {
		total += l.count
	}

	fmt.Fprintln(w, "\nLanguage breakdown:")
	for _, l := range langs {
		fmt.Fprintf(w, "  %s: %d files (%.1f%%)\n", l.tag.DisplayName(), l.count, float64(l.count)*100/float64(total))
	}
}
