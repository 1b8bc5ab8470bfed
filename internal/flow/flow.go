// Package flow implements the confirmation dialog as an explicit state
// machine. A dialog starts Idle, captures a pending mutation when it moves
// to Confirming, performs that mutation exactly once when confirmed, and
// waits in Succeeded until dismissed.
package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/backoffice/internal/metrics"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Stage is a dialog state.
type Stage int

const (
	Idle Stage = iota
	Confirming
	Succeeded
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Confirming:
		return "confirming"
	case Succeeded:
		return "succeeded"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Next lists the stages reachable from s in one transition.
func (s Stage) Next() []Stage {
	switch s {
	case Idle:
		return []Stage{Confirming}
	case Confirming:
		return []Stage{Idle, Succeeded}
	case Succeeded:
		return []Stage{Idle}
	}
	return nil
}

// Action is the kind of pending mutation.
type Action string

const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Committer performs the mutation a dialog confirms.
type Committer interface {
	Create(ctx context.Context, draft map[string]any, pos types.Position) (types.Record, error)
	Update(ctx context.Context, id string, patch map[string]any) (types.Record, error)
	Remove(ctx context.Context, ids ...string) error
}

// Pending is the mutation captured on entry to Confirming. Targets are
// snapshots of the records the action applies to, taken when the dialog
// opened.
type Pending struct {
	Action   Action
	Targets  []types.Record
	Draft    map[string]any
	Position types.Position
}

// IDs returns the ids of the targets.
func (p Pending) IDs() []string {
	ids := make([]string, len(p.Targets))
	for i, t := range p.Targets {
		ids[i] = t.ID
	}
	return ids
}

// Dialog is one confirmation dialog bound to an entity.
type Dialog struct {
	entity    types.Entity
	committer Committer
	stage     Stage
	pending   *Pending
	result    *types.Record
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// Option configures a Dialog.
type Option func(*Dialog)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dialog) { d.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(d *Dialog) { d.metrics = m }
}

// New returns an idle dialog committing through c.
func New(entity types.Entity, c Committer, opts ...Option) *Dialog {
	d := &Dialog{entity: entity, committer: c, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("entity", string(entity))
	return d
}

// Stage returns the current stage.
func (d *Dialog) Stage() Stage { return d.stage }

// Pending returns a copy of the pending mutation. ok is false outside
// Confirming and Succeeded.
func (d *Dialog) Pending() (Pending, bool) {
	if d.pending == nil {
		return Pending{}, false
	}
	return clonePending(*d.pending), true
}

// Result returns the record produced by a confirmed create or edit.
func (d *Dialog) Result() (types.Record, bool) {
	if d.result == nil {
		return types.Record{}, false
	}
	return d.result.Clone(), true
}

// BeginCreate opens the dialog for a new record.
func (d *Dialog) BeginCreate(draft map[string]any, pos types.Position) error {
	return d.begin(Pending{Action: ActionCreate, Draft: draft, Position: pos})
}

// BeginEdit opens the dialog to apply patch to target.
func (d *Dialog) BeginEdit(target types.Record, patch map[string]any) error {
	return d.begin(Pending{Action: ActionEdit, Targets: []types.Record{target}, Draft: patch})
}

// BeginDelete opens the dialog to delete targets.
func (d *Dialog) BeginDelete(targets ...types.Record) error {
	if len(targets) == 0 {
		return fmt.Errorf("delete without targets: %w", types.ErrNothingPending)
	}
	return d.begin(Pending{Action: ActionDelete, Targets: targets})
}

// SetDraft replaces the draft of a pending create or edit, as a form does
// while the user corrects input.
func (d *Dialog) SetDraft(draft map[string]any) error {
	if d.stage != Confirming {
		return d.invalid(Confirming)
	}
	d.pending.Draft = types.NormalizeFields(draft)
	return nil
}

// Confirm performs the pending mutation. On failure the dialog stays in
// Confirming with its draft intact and the error is returned.
func (d *Dialog) Confirm(ctx context.Context) error {
	if d.stage != Confirming {
		return d.invalid(Succeeded)
	}

	p := d.pending
	var (
		rec types.Record
		err error
	)
	switch p.Action {
	case ActionCreate:
		rec, err = d.committer.Create(ctx, p.Draft, p.Position)
	case ActionEdit:
		rec, err = d.committer.Update(ctx, p.Targets[0].ID, p.Draft)
	case ActionDelete:
		err = d.committer.Remove(ctx, p.IDs()...)
	default:
		err = fmt.Errorf("action %q: %w", p.Action, types.ErrNothingPending)
	}
	if err != nil {
		d.logger.Debug("dialog confirm failed", "action", string(p.Action), "error", err)
		return err
	}

	if p.Action != ActionDelete {
		d.result = &rec
	}
	d.move(Succeeded)
	return nil
}

// Cancel discards the pending mutation without performing it.
func (d *Dialog) Cancel() error {
	if d.stage != Confirming {
		return d.invalid(Idle)
	}
	d.pending = nil
	d.move(Idle)
	return nil
}

// Dismiss closes a succeeded dialog.
func (d *Dialog) Dismiss() error {
	if d.stage != Succeeded {
		return d.invalid(Idle)
	}
	d.pending = nil
	d.result = nil
	d.move(Idle)
	return nil
}

func (d *Dialog) begin(p Pending) error {
	if d.stage != Idle {
		return d.invalid(Confirming)
	}
	p = clonePending(p)
	d.pending = &p
	d.result = nil
	d.move(Confirming)
	return nil
}

func (d *Dialog) move(to Stage) {
	d.logger.Debug("dialog transition", "from", d.stage.String(), "to", to.String())
	d.stage = to
	d.metrics.DialogTransition(string(d.entity), to.String())
}

func (d *Dialog) invalid(to Stage) error {
	return fmt.Errorf("%s -> %s: %w", d.stage, to, types.ErrInvalidTransition)
}

func clonePending(p Pending) Pending {
	out := p
	if p.Targets != nil {
		out.Targets = make([]types.Record, len(p.Targets))
		for i, t := range p.Targets {
			out.Targets[i] = t.Clone()
		}
	}
	if p.Draft != nil {
		out.Draft = types.NormalizeFields(p.Draft)
	}
	return out
}
