// Package batch executes parsed operation scripts against a document as a
// single atomic transaction. All mutation happens on a private clone of the
// store's indices; on any failure the clone is discarded and the primary
// store is provably untouched, on success the indices are swapped in
// wholesale and exactly one undo snapshot is recorded.
package batch

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sketchflow-xyz/go-sketchflow/history"
	"github.com/sketchflow-xyz/go-sketchflow/layout"
	"github.com/sketchflow-xyz/go-sketchflow/scene"
	"github.com/sketchflow-xyz/go-sketchflow/script"
	"github.com/sketchflow-xyz/go-sketchflow/theme"
)

// Error types for the batch package.
var (
	// ErrUnresolvedRef is returned when an argument names an unknown binding or node.
	ErrUnresolvedRef = errors.New("unresolved reference")

	// ErrBadArity is returned when an operation receives the wrong arguments.
	ErrBadArity = errors.New("wrong arguments for operation")

	// ErrNotInstance is returned when a slash path addresses a non-ref node.
	ErrNotInstance = errors.New("slash path target is not an instance")
)

// createdDepth is how deep created-node subtrees are serialized in results.
const createdDepth = 2

// Result is the structured outcome of one batch, serialized back to the
// caller. A rollback carries Error/CompletedOperations/TotalOperations; a
// commit carries Success/OperationsExecuted/CreatedNodes/Issues.
type Result struct {
	Success             bool             `json:"success,omitempty"`
	Error               string           `json:"error,omitempty"`
	CompletedOperations []string         `json:"completedOperations,omitempty"`
	TotalOperations     int              `json:"totalOperations,omitempty"`
	OperationsExecuted  int              `json:"operationsExecuted,omitempty"`
	CreatedNodes        []map[string]any `json:"createdNodes,omitempty"`
	Issues              []string         `json:"issues,omitempty"`
}

// Executor runs batches against a document store. The zero value works
// without history, themes, or layout; set collaborators as needed.
type Executor struct {
	History     history.Store
	Themes      theme.Resolver
	ActiveTheme string
	Layout      layout.Solver
	Logger      zerolog.Logger

	// OnCommit fires after a successful swap with the created node ids.
	OnCommit func(created []string)
}

// New creates an executor with the given undo store and a disabled logger.
func New(hist history.Store) *Executor {
	return &Executor{History: hist, Logger: zerolog.Nop()}
}

// execContext is the ephemeral state of one batch: the working copy, the
// script-local bindings, created ids, and non-fatal issues. It is discarded
// whole on failure and merged into the primary store on success.
type execContext struct {
	work     *scene.Store
	bindings map[string]string
	created  []string
	issues   []string
}

// Run parses and executes a script against doc. All parse and execution
// errors come back inside the Result; nothing escapes as a fault. The
// store is only mutated on full success, by swapping in the working copy's
// indices.
func (e *Executor) Run(doc *scene.Store, text string) *Result {
	ops, err := script.Parse(text)
	if err != nil {
		return &Result{Error: err.Error()}
	}

	ctx := &execContext{
		work:     doc.Clone(),
		bindings: map[string]string{script.RootSentinel: ""},
	}

	e.Logger.Debug().Int("operations", len(ops)).Msg("applying batch")

	for i := range ops {
		op := &ops[i]
		if err := e.apply(ctx, op); err != nil {
			completed := make([]string, 0, i)
			for j := 0; j < i; j++ {
				completed = append(completed, ops[j].Summary())
			}
			e.Logger.Warn().
				Int("completed", i).
				Int("total", len(ops)).
				Err(err).
				Msg("batch rolled back")
			return &Result{
				Error:               fmt.Sprintf("operation %d (line %d): %v", i+1, op.Line, err),
				CompletedOperations: completed,
				TotalOperations:     len(ops),
			}
		}
	}

	// Snapshot the pre-batch indices, then swap in the working copy.
	if e.History != nil {
		pre := &scene.Store{
			Nodes:    doc.Nodes,
			Parent:   doc.Parent,
			Children: doc.Children,
			Roots:    doc.Roots,
		}
		if err := e.History.Push(pre); err != nil {
			e.Logger.Warn().Err(err).Msg("batch rolled back: undo snapshot failed")
			return &Result{
				Error:           fmt.Sprintf("recording undo snapshot: %v", err),
				TotalOperations: len(ops),
			}
		}
	}
	doc.Nodes = ctx.work.Nodes
	doc.Parent = ctx.work.Parent
	doc.Children = ctx.work.Children
	doc.Roots = ctx.work.Roots

	created := make([]map[string]any, 0, len(ctx.created))
	for _, id := range ctx.created {
		if v := doc.View(id, createdDepth); v != nil {
			created = append(created, v)
		}
	}

	e.Logger.Info().
		Int("operations", len(ops)).
		Int("created", len(ctx.created)).
		Msg("batch committed")

	if e.OnCommit != nil {
		e.OnCommit(append([]string(nil), ctx.created...))
	}

	return &Result{
		Success:            true,
		OperationsExecuted: len(ops),
		CreatedNodes:       created,
		Issues:             ctx.issues,
	}
}

// apply dispatches one operation against the working copy.
func (e *Executor) apply(ctx *execContext, op *script.Op) error {
	switch op.Code {
	case script.OpInsert:
		return e.applyInsert(ctx, op)
	case script.OpCopy:
		return e.applyCopy(ctx, op)
	case script.OpUpdate:
		return e.applyUpdate(ctx, op)
	case script.OpReplace:
		return e.applyReplace(ctx, op)
	case script.OpMove:
		return e.applyMove(ctx, op)
	case script.OpDelete:
		return e.applyDelete(ctx, op)
	case script.OpGenerate:
		return e.applyGenerate(ctx, op)
	}
	return fmt.Errorf("unknown opcode %s", op.Code)
}
