// Package transform runs the AI inline-edit workflow: request a replacement
// for a selection, stage it as a proposal, then accept or reject it.
package transform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sourcemind/aiclient"
	"sourcemind/buffer"
	"sourcemind/events"
	"sourcemind/logging"
)

// State is the workflow state
type State int

const (
	Idle State = iota
	Requesting
	ProposalActive
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case ProposalActive:
		return "proposal"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrNoSelection    = errors.New("no code selected")
	ErrAIUnavailable  = errors.New("AI service is offline")
	ErrStaleSelection = errors.New("selection no longer matches the document")
	ErrSuperseded     = errors.New("edit request superseded by a newer one")
	ErrNoProposal     = errors.New("no proposal to resolve")
	ErrBufferChanged  = errors.New("document changed since the proposal was made")
	ErrProposalActive = errors.New("resolve the current proposal first")
)

// EditService produces replacement code for a selection
type EditService interface {
	EditInline(ctx context.Context, req aiclient.EditRequest) (string, error)
}

// Document is the buffer the workflow reads from and writes into
type Document interface {
	Snapshot() buffer.Snapshot
	ReplaceIf(expected, next string) (bool, error)
}

// Proposal is a staged, not yet applied edit
type Proposal struct {
	Path        string
	Base        string // document content the proposal was computed against
	Proposed    string
	Selection   Selection
	Replacement string
	Instruction string
}

// Diff returns the line-level difference between Base and Proposed
func (p Proposal) Diff() []DiffLine {
	return lineDiff(p.Base, p.Proposed)
}

// Unified renders the proposal as a unified diff
func (p Proposal) Unified(context int) string {
	return unified(p.Path, p.Diff(), context)
}

// Changed reports whether accepting would modify the document
func (p Proposal) Changed() bool {
	return p.Base != p.Proposed
}

// Resolution is the payload of events.ProposalResolved
type Resolution struct {
	Proposal Proposal
	Accepted bool
}

// Workflow is the edit state machine for one document. It is safe for
// concurrent use; the newest request wins.
type Workflow struct {
	doc     Document
	ai      EditService
	bus     *events.EventBus
	timeout time.Duration

	mu       sync.Mutex
	state    State
	seq      uint64
	cancel   context.CancelFunc
	proposal *Proposal
}

// New creates an idle workflow. timeout bounds each edit request; zero means
// no limit beyond the caller's context.
func New(doc Document, ai EditService, bus *events.EventBus, timeout time.Duration) *Workflow {
	return &Workflow{
		doc:     doc,
		ai:      ai,
		bus:     bus,
		timeout: timeout,
	}
}

// RequestEdit asks the AI service to rewrite sel according to instruction and
// stages the result. The substitution is computed against the document as it
// is when the response arrives.
func (w *Workflow) RequestEdit(ctx context.Context, instruction string, sel Selection) (*Proposal, error) {
	snap := w.doc.Snapshot()
	if snap.Path == "" || sel.Empty() {
		return nil, ErrNoSelection
	}

	w.mu.Lock()
	if w.state == ProposalActive {
		w.mu.Unlock()
		return nil, ErrProposalActive
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.seq++
	seq := w.seq
	var reqCtx context.Context
	var cancel context.CancelFunc
	if w.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, w.timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}
	w.cancel = cancel
	w.state = Requesting
	w.mu.Unlock()

	log := logging.WithContext(ctx)
	log.Info("edit requested",
		logging.String("path", snap.Path),
		logging.Int("selected_bytes", len(sel.Text)),
		logging.Bool("anchored", sel.Anchored()))
	w.bus.Emit(events.EditRequested, snap.Path)

	start := time.Now()
	replacement, err := w.ai.EditInline(reqCtx, aiclient.EditRequest{
		Instruction:  instruction,
		SelectedCode: sel.Text,
		FileContext:  snap.Live,
	})

	w.mu.Lock()
	defer w.mu.Unlock()

	if seq != w.seq {
		cancel()
		log.Debug("dropping superseded edit response", logging.String("path", snap.Path))
		return nil, ErrSuperseded
	}
	w.cancel()
	w.cancel = nil

	if err != nil {
		w.state = Idle
		log.Warn("edit request failed", logging.String("path", snap.Path), logging.Err(err))
		err = fmt.Errorf("%w: %w", ErrAIUnavailable, err)
		w.bus.Emit(events.EditFailed, err.Error())
		return nil, err
	}

	current := w.doc.Snapshot()
	proposed, err := substitute(current.Live, sel, replacement)
	if err == nil && current.Path != snap.Path {
		err = ErrStaleSelection
	}
	if err != nil {
		w.state = Idle
		log.Warn("edit response does not apply", logging.String("path", snap.Path), logging.Err(err))
		w.bus.Emit(events.EditFailed, err.Error())
		return nil, err
	}

	p := &Proposal{
		Path:        current.Path,
		Base:        current.Live,
		Proposed:    proposed,
		Selection:   sel,
		Replacement: replacement,
		Instruction: instruction,
	}
	w.proposal = p
	w.state = ProposalActive

	log.Info("proposal staged", logging.String("path", p.Path), logging.Duration("duration", time.Since(start)))
	w.bus.Emit(events.ProposalStaged, *p)
	return p, nil
}

// Accept applies the active proposal to the document. If the document
// changed since the proposal was staged nothing is applied, the proposal is
// dropped and ErrBufferChanged is returned.
func (w *Workflow) Accept() (Proposal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != ProposalActive || w.proposal == nil {
		return Proposal{}, ErrNoProposal
	}
	p := *w.proposal

	if w.doc.Snapshot().Path != p.Path {
		w.clear()
		return p, ErrBufferChanged
	}
	ok, err := w.doc.ReplaceIf(p.Base, p.Proposed)
	if err != nil {
		return p, err
	}
	w.clear()
	if !ok {
		logging.L().Warn("proposal discarded, document changed", logging.String("path", p.Path))
		w.bus.Emit(events.ProposalResolved, Resolution{Proposal: p})
		return p, ErrBufferChanged
	}

	logging.L().Info("proposal accepted", logging.String("path", p.Path))
	w.bus.Emit(events.ProposalResolved, Resolution{Proposal: p, Accepted: true})
	return p, nil
}

// Reject discards the active proposal. The document is not touched.
func (w *Workflow) Reject() (Proposal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != ProposalActive || w.proposal == nil {
		return Proposal{}, ErrNoProposal
	}
	p := *w.proposal
	w.clear()

	logging.L().Info("proposal rejected", logging.String("path", p.Path))
	w.bus.Emit(events.ProposalResolved, Resolution{Proposal: p})
	return p, nil
}

// Reset cancels an in-flight request and discards any proposal
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.seq++
	if w.proposal != nil {
		w.bus.Emit(events.ProposalResolved, Resolution{Proposal: *w.proposal})
	}
	w.clear()
}

func (w *Workflow) clear() {
	w.proposal = nil
	w.state = Idle
}

// State returns the current state
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Proposal returns a copy of the active proposal
func (w *Workflow) Proposal() (Proposal, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.proposal == nil {
		return Proposal{}, false
	}
	return *w.proposal, true
}
