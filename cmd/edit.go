package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"sourcemind/editor"
	"sourcemind/transform"
)

var (
	editStartLine   int
	editEndLine     int
	editInstruction string
	editApply       bool
)

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Request an AI edit of a line range",
	Long: `Send a line range of a file and an instruction to the AI service and print
the proposed change as a unified diff. With --apply the change is written to
the file.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path, err := filepath.Abs(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		_, cfg, err := loadWorkspace([]string{filepath.Dir(path)})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		cfg.Watch = false

		session := newSession(cfg)
		defer session.Close()

		opts := editOptions{
			Path:        path,
			StartLine:   editStartLine,
			EndLine:     editEndLine,
			Instruction: editInstruction,
			Apply:       editApply,
		}
		if err := runEdit(cmd.Context(), cmd.OutOrStdout(), session, opts); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	},
}

type editOptions struct {
	Path        string
	StartLine   int
	EndLine     int
	Instruction string
	Apply       bool
}

// runEdit requests one proposal and prints it. The proposal is accepted and
// saved only when opts.Apply is set; otherwise it is rejected.
func runEdit(ctx context.Context, w io.Writer, session *editor.Session, opts editOptions) error {
	if err := session.OpenFile(opts.Path, true); err != nil {
		return err
	}

	end := opts.EndLine
	if end == 0 {
		end = opts.StartLine
	}
	sel, err := transform.LineSelection(session.Buffer.Live(), opts.StartLine, end)
	if err != nil {
		return err
	}

	p, err := session.RequestEdit(ctx, opts.Instruction, sel)
	if err != nil {
		return err
	}

	if !p.Changed() {
		fmt.Fprintln(w, "No changes proposed")
		_, err := session.Reject()
		return err
	}
	fmt.Fprint(w, p.Unified(3))

	if !opts.Apply {
		_, err := session.Reject()
		return err
	}

	if _, err := session.Accept(); err != nil {
		if errors.Is(err, transform.ErrBufferChanged) {
			return fmt.Errorf("%s changed while the edit was generated: %w", opts.Path, err)
		}
		return err
	}
	if _, err := session.Save(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Applied to %s\n", opts.Path)
	return nil
}

func init() {
	editCmd.Flags().IntVar(&editStartLine, "start-line", 1, "First line of the selection (1-based)")
	editCmd.Flags().IntVar(&editEndLine, "end-line", 0, "Last line of the selection, inclusive (defaults to --start-line)")
	editCmd.Flags().StringVarP(&editInstruction, "instruction", "i", "", "What to change")
	editCmd.Flags().BoolVar(&editApply, "apply", false, "Write the proposed change to the file")
	editCmd.MarkFlagRequired("instruction")
}
