package trackcontrols

import (
	"fmt"
	"time"

	"modestep/config"
	"modestep/debug"
	"modestep/sched"
)

// Window is the edit screen currently shown.
type Window int

const (
	WindowNone Window = iota
	WindowTopControl
	WindowBottomControl
	WindowAction
	WindowActionAlt
)

// Outcome tells the caller whether the edit flow is still running.
type Outcome int

const (
	Continue Outcome = iota
	// Cancelled means the editor was left without changes.
	Cancelled
	// Committed means the slot was written and its mode should be entered.
	Committed
	// Deleted means the slot was disabled.
	Deleted
)

// Result of an editor step. Popup is text to flash on the display, if any.
type Result struct {
	Outcome Outcome
	Popup   string
}

type pending struct {
	top, bottom config.TrackControl
	action      config.Action
}

// Editor is the edit flow for one slot at a time: top control, then bottom
// control, with an optional detour to pick the action binding.
type Editor struct {
	engine      *Engine
	sched       sched.Scheduler
	deleteDelay time.Duration

	slot    int
	window  Window
	pending pending

	deleteTimer *sched.Timer
	onDelete    func(Result)
}

// NewEditor creates an editor writing to engine.
func NewEditor(engine *Engine, s sched.Scheduler, deleteDelay time.Duration) *Editor {
	return &Editor{engine: engine, sched: s, deleteDelay: deleteDelay}
}

// Begin starts editing slot n. The pending action starts from the slot's
// current binding.
func (e *Editor) Begin(n int) {
	e.AbortDelete()
	e.slot = n
	e.pending = pending{action: e.engine.Slot(n).Action}
	if e.pending.action == "" {
		e.pending.action = DefaultAction
	}
	e.window = WindowTopControl
	debug.Log("edit", "editing slot %d", n)
}

// Active reports whether an edit is in progress.
func (e *Editor) Active() bool {
	return e.window != WindowNone
}

// Slot is the slot being edited.
func (e *Editor) Slot() int {
	return e.slot
}

// Window is the current edit screen.
func (e *Editor) Window() Window {
	return e.window
}

// Deleting reports whether the delete warning is showing.
func (e *Editor) Deleting() bool {
	return e.deleteTimer.Active()
}

// PendingAction is the action that will be committed.
func (e *Editor) PendingAction() config.Action {
	return e.pending.action
}

// DisplayText is the title of the current edit screen.
func (e *Editor) DisplayText() string {
	var suffix string
	switch e.window {
	case WindowTopControl:
		suffix = "Top"
	case WindowBottomControl:
		suffix = "Bot"
	case WindowAction:
		suffix = "Act"
	case WindowActionAlt:
		suffix = "Utl"
	default:
		return ""
	}
	return fmt.Sprintf("%d%s", e.slot, suffix)
}

// SelectControl picks the control for the current row. Choosing the bottom
// control commits the slot.
func (e *Editor) SelectControl(c config.TrackControl) Result {
	if e.window != WindowTopControl && e.window != WindowBottomControl {
		return Result{}
	}
	popup := config.TrackControlNames[c]
	if e.pending.top == "" {
		e.pending.top = c
	} else {
		e.pending.bottom = c
	}
	return e.next(popup)
}

// OpenActions switches to action selection; alt selects the secondary
// category.
func (e *Editor) OpenActions(alt bool) {
	if !e.Active() {
		return
	}
	if alt {
		e.window = WindowActionAlt
	} else {
		e.window = WindowAction
	}
}

// SelectAction stores the action and returns to the control step.
func (e *Editor) SelectAction(a config.Action) Result {
	if e.window != WindowAction && e.window != WindowActionAlt {
		return Result{}
	}
	e.pending.action = a
	return e.next(config.ActionAbbreviations[a])
}

// Back goes one level up: action screens return to the control step, the
// bottom step clears the top control, and the top step leaves the editor.
func (e *Editor) Back() Result {
	switch e.window {
	case WindowAction, WindowActionAlt:
		return e.next("")
	case WindowBottomControl:
		e.pending.top = ""
		e.window = WindowTopControl
		return Result{}
	case WindowTopControl:
		e.finish()
		return Result{Outcome: Cancelled}
	}
	return Result{}
}

// StartDelete shows the delete warning. If AbortDelete is not called within
// the delete delay the slot is disabled and onDelete receives the result.
func (e *Editor) StartDelete(onDelete func(Result)) {
	if !e.Active() || e.Deleting() {
		return
	}
	e.onDelete = onDelete
	e.deleteTimer = e.sched.After(e.deleteDelay, e.delete)
	debug.Log("edit", "slot %d delete armed", e.slot)
}

// AbortDelete cancels a pending delete. Safe to call at any time.
func (e *Editor) AbortDelete() {
	if e.deleteTimer.Stop() {
		debug.Log("edit", "slot %d delete aborted", e.slot)
	}
	e.deleteTimer = nil
}

// Cancel leaves the editor without committing.
func (e *Editor) Cancel() {
	e.AbortDelete()
	e.finish()
}

func (e *Editor) delete() {
	n := e.slot
	e.engine.Disable(n)
	e.finish()
	if e.onDelete != nil {
		e.onDelete(Result{Outcome: Deleted, Popup: fmt.Sprintf("DeL%d", n)})
	}
}

func (e *Editor) next(popup string) Result {
	if e.pending.top != "" && e.pending.bottom != "" {
		p := e.pending
		n := e.slot
		e.finish()
		if err := e.engine.Set(n, p.top, p.bottom, p.action); err != nil {
			debug.Warn("edit", "commit failed: %v", err)
			return Result{Outcome: Cancelled}
		}
		return Result{Outcome: Committed, Popup: popup}
	}
	if e.pending.top == "" {
		e.window = WindowTopControl
	} else {
		e.window = WindowBottomControl
	}
	return Result{Popup: popup}
}

func (e *Editor) finish() {
	e.window = WindowNone
	e.pending = pending{}
}
