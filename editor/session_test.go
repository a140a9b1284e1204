package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sourcemind/aiclient"
	"sourcemind/buffer"
	"sourcemind/config"
	"sourcemind/fsapi/fsapitest"
	"sourcemind/project"
	"sourcemind/transform"
	"sourcemind/undo"
)

type fakeAI struct {
	replacement string
	answer      string
	err         error
	asked       []string
}

func (f *fakeAI) IndexProject(ctx context.Context, path string) (aiclient.IndexResult, error) {
	return aiclient.IndexResult{Status: "success"}, f.err
}

func (f *fakeAI) EditInline(ctx context.Context, req aiclient.EditRequest) (string, error) {
	return f.replacement, f.err
}

func (f *fakeAI) Ask(ctx context.Context, prompt, contextCode string) (string, error) {
	f.asked = append(f.asked, prompt, contextCode)
	return f.answer, f.err
}

func newSession(t *testing.T, ai *fakeAI) (*Session, *fsapitest.MemFS) {
	t.Helper()
	fs := fsapitest.New("/proj").
		AddFile("/proj/a.py", "x=1").
		AddFile("/proj/b.go", "package b").
		AddBinary("/proj/logo.png")

	cfg := config.DefaultConfig()
	cfg.Watch = false
	s := NewSession(fs, ai, cfg)
	t.Cleanup(s.Close)

	chooser := func(ctx context.Context) (string, bool, error) { return "/proj", true, nil }
	require.NoError(t, s.OpenFolder(context.Background(), chooser))
	return s, fs
}

func TestProjectScenario(t *testing.T) {
	s, fs := newSession(t, &fakeAI{})

	status, _ := s.Project.Status()
	assert.Equal(t, project.Ready, status)
	assert.Len(t, s.Project.Tree(), 3)

	require.NoError(t, s.OpenFile("/proj/a.py", false))
	assert.Equal(t, Header{Language: "PYTHON", Title: "a.py"}, s.Header())

	require.NoError(t, s.Edit("x=2"))
	assert.True(t, s.Header().Dirty)

	wrote, err := s.Save()
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.False(t, s.Header().Dirty)

	content, _ := fs.Content("/proj/a.py")
	assert.Equal(t, "x=2", content)
}

func TestHeaderWithoutDocument(t *testing.T) {
	s, _ := newSession(t, &fakeAI{})
	assert.Equal(t, Header{Language: "PLAINTEXT", Title: DefaultTitle}, s.Header())
}

func TestOpenFileGuardsUnsavedChanges(t *testing.T) {
	s, _ := newSession(t, &fakeAI{})
	require.NoError(t, s.OpenFile("/proj/a.py", false))
	require.NoError(t, s.Edit("x=99"))

	err := s.OpenFile("/proj/b.go", false)
	assert.ErrorIs(t, err, ErrUnsavedChanges)
	assert.Equal(t, "/proj/a.py", s.Buffer.Path())
	assert.Equal(t, "x=99", s.Buffer.Live())

	require.NoError(t, s.OpenFile("/proj/b.go", true))
	assert.Equal(t, "package b", s.Buffer.Live())
}

func TestOpenFileGuardDisabled(t *testing.T) {
	fs := fsapitest.New("/proj").AddFile("/proj/a.py", "x=1").AddFile("/proj/b.py", "y=1")
	cfg := config.DefaultConfig()
	cfg.Watch = false
	cfg.ConfirmDiscard = false
	s := NewSession(fs, &fakeAI{}, cfg)
	defer s.Close()

	require.NoError(t, s.OpenFile("/proj/a.py", false))
	require.NoError(t, s.Edit("x=99"))
	require.NoError(t, s.OpenFile("/proj/b.py", false))
	assert.Equal(t, "y=1", s.Buffer.Live())
}

func TestOpenBinaryFile(t *testing.T) {
	s, _ := newSession(t, &fakeAI{})
	require.NoError(t, s.OpenFile("/proj/a.py", false))

	err := s.OpenFile("/proj/logo.png", false)
	assert.ErrorIs(t, err, buffer.ErrBinaryFile)
	assert.Equal(t, "/proj/a.py", s.Buffer.Path())
}

func TestAcceptAndUndo(t *testing.T) {
	s, _ := newSession(t, &fakeAI{replacement: "y=1"})
	require.NoError(t, s.OpenFile("/proj/a.py", false))

	_, err := s.RequestEdit(context.Background(), "rename", transform.TextSelection("x=1"))
	require.NoError(t, err)
	_, err = s.Accept()
	require.NoError(t, err)
	assert.Equal(t, "y=1", s.Buffer.Live())

	action, err := s.UndoAccept()
	require.NoError(t, err)
	assert.Equal(t, "rename", action.Description)
	assert.Equal(t, "x=1", s.Buffer.Live())

	_, err = s.UndoAccept()
	assert.ErrorIs(t, err, undo.ErrNothingToUndo)
}

func TestUndoAfterFurtherEdits(t *testing.T) {
	s, _ := newSession(t, &fakeAI{replacement: "y=1"})
	require.NoError(t, s.OpenFile("/proj/a.py", false))

	_, err := s.RequestEdit(context.Background(), "rename", transform.TextSelection("x=1"))
	require.NoError(t, err)
	_, err = s.Accept()
	require.NoError(t, err)
	require.NoError(t, s.Edit("y=1\nz=2"))

	_, err = s.UndoAccept()
	assert.ErrorIs(t, err, transform.ErrBufferChanged)
	assert.Equal(t, "y=1\nz=2", s.Buffer.Live())
}

func TestSwitchingFilesRejectsProposal(t *testing.T) {
	s, _ := newSession(t, &fakeAI{replacement: "y=1"})
	require.NoError(t, s.OpenFile("/proj/a.py", false))

	_, err := s.RequestEdit(context.Background(), "rename", transform.TextSelection("x=1"))
	require.NoError(t, err)
	assert.Equal(t, transform.ProposalActive, s.Workflow.State())

	require.NoError(t, s.OpenFile("/proj/b.go", false))
	assert.Equal(t, transform.Idle, s.Workflow.State())
	_, err = s.Accept()
	assert.ErrorIs(t, err, transform.ErrNoProposal)
	assert.Equal(t, "package b", s.Buffer.Live())
}

func TestRequestEditOffline(t *testing.T) {
	s, _ := newSession(t, &fakeAI{})
	require.NoError(t, s.OpenFile("/proj/a.py", false))

	s.ai.(*fakeAI).err = aiclient.ErrUnavailable
	_, err := s.RequestEdit(context.Background(), "rename", transform.TextSelection("x=1"))
	assert.ErrorIs(t, err, transform.ErrAIUnavailable)
	assert.Equal(t, "x=1", s.Buffer.Live())
}

func TestAsk(t *testing.T) {
	ai := &fakeAI{answer: "it assigns x"}
	s, _ := newSession(t, ai)
	require.NoError(t, s.OpenFile("/proj/a.py", false))

	answer, err := s.Ask(context.Background(), "what does this do?", "")
	require.NoError(t, err)
	assert.Equal(t, "it assigns x", answer)
	assert.Equal(t, []string{"what does this do?", "x=1"}, ai.asked)

	ai.err = errors.New("offline")
	_, err = s.Ask(context.Background(), "again?", "x")
	assert.ErrorIs(t, err, transform.ErrAIUnavailable)
}

func TestSaveCleanDocument(t *testing.T) {
	s, fs := newSession(t, &fakeAI{})
	require.NoError(t, s.OpenFile("/proj/a.py", false))

	wrote, err := s.Save()
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, 0, fs.CountCalls("write"))
}
