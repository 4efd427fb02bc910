package workflow

import (
	"encoding/json"
	"strings"

	"vira/command"
)

type BatchPhase int

const (
	BatchIdle BatchPhase = iota
	Parsing
	Reviewing
)

func (p BatchPhase) String() string {
	switch p {
	case BatchIdle:
		return "idle"
	case Parsing:
		return "parsing"
	case Reviewing:
		return "reviewing"
	default:
		return "unknown"
	}
}

type EntryStatus int

const (
	Pending EntryStatus = iota
	Completed
	Skipped
	Failed
)

func (s EntryStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status can never change again.
func (s EntryStatus) Terminal() bool {
	return s != Pending
}

// Entry wraps one extracted action with its per-item lifecycle. An entry is
// created pending and moves to exactly one terminal status exactly once. A
// failed execution does NOT terminate the entry: it stays pending with Err
// set so the user can retry or skip explicitly.
type Entry struct {
	Action command.Action
	Status EntryStatus
	Result json.RawMessage
	Err    string

	// executing guards the window between confirm and the execution
	// completion; a second confirm during it is a no-op.
	executing bool
}

// Executing reports whether an execution request for this entry is in
// flight.
func (e Entry) Executing() bool { return e.executing }

// Batch drives the transcript path: parse once, then review each extracted
// entry independently. Entries live in a flat slice and are addressed by
// index; indices stay stable for the lifetime of one parse result. The
// batch never returns to idle on its own; the next parse replaces the whole
// entry set atomically.
type Batch struct {
	phase   BatchPhase
	text    string
	entries []Entry
	errMsg  string
	token   uint64
}

func NewBatch() *Batch {
	return &Batch{phase: BatchIdle}
}

func (b *Batch) Phase() BatchPhase  { return b.phase }
func (b *Batch) Text() string       { return b.text }
func (b *Batch) ErrMessage() string { return b.errMsg }
func (b *Batch) Len() int           { return len(b.entries) }

// Entries returns a snapshot of the current entry set.
func (b *Batch) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *Batch) entry(i int, event string) (*Entry, error) {
	if i < 0 || i >= len(b.entries) {
		return nil, &TransitionError{State: b.phase.String(), Event: event}
	}
	return &b.entries[i], nil
}

// BeginParse starts transcript extraction and issues a request token. A
// parse is rejected while another is outstanding; superseding is a voice
// mode behavior, batch re-parses are explicit user actions.
func (b *Batch) BeginParse(text string) (uint64, error) {
	if b.phase == Parsing {
		return 0, &TransitionError{State: b.phase.String(), Event: "parse"}
	}
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyTranscript
	}
	b.phase = Parsing
	b.text = text
	b.token++
	return b.token, nil
}

// ParseDone installs a fresh entry set, replacing the previous one
// wholesale. Entries from an earlier parse never survive, whatever their
// status. Zero actions is a legitimate outcome. Stale tokens are discarded.
func (b *Batch) ParseDone(token uint64, actions []command.Action) bool {
	if b.phase != Parsing || token != b.token {
		return false
	}
	entries := make([]Entry, len(actions))
	for i, a := range actions {
		entries[i] = Entry{Action: a, Status: Pending}
	}
	b.entries = entries
	b.errMsg = ""
	b.phase = Reviewing
	return true
}

// ParseFailed surfaces the error and keeps whatever entry set was live
// before the failed parse.
func (b *Batch) ParseFailed(token uint64, err error) bool {
	if b.phase != Parsing || token != b.token {
		return false
	}
	b.errMsg = err.Error()
	if len(b.entries) > 0 {
		b.phase = Reviewing
	} else {
		b.phase = BatchIdle
	}
	return true
}

// BeginExecute hands out the entry's action for execution, exactly once:
// a non-pending entry or one already executing is rejected.
func (b *Batch) BeginExecute(i int) (command.Action, error) {
	e, err := b.entry(i, "execute")
	if err != nil {
		return command.Action{}, err
	}
	if e.Status != Pending || e.executing {
		return command.Action{}, &TransitionError{State: e.Status.String(), Event: "execute"}
	}
	e.executing = true
	e.Err = ""
	return e.Action, nil
}

// ExecDone completes the entry with the tracker's response attached.
func (b *Batch) ExecDone(i int, result json.RawMessage) error {
	e, err := b.entry(i, "exec-done")
	if err != nil {
		return err
	}
	if !e.executing {
		return &TransitionError{State: e.Status.String(), Event: "exec-done"}
	}
	e.executing = false
	e.Status = Completed
	e.Result = result
	return nil
}

// ExecFailed leaves the entry pending with the error recorded, so the user
// can retry or skip. Sibling entries are untouched.
func (b *Batch) ExecFailed(i int, execErr error) error {
	e, err := b.entry(i, "exec-failed")
	if err != nil {
		return err
	}
	if !e.executing {
		return &TransitionError{State: e.Status.String(), Event: "exec-failed"}
	}
	e.executing = false
	e.Err = execErr.Error()
	return nil
}

// Skip marks a pending entry skipped.
func (b *Batch) Skip(i int) error {
	e, err := b.entry(i, "skip")
	if err != nil {
		return err
	}
	if e.Status != Pending || e.executing {
		return &TransitionError{State: e.Status.String(), Event: "skip"}
	}
	e.Status = Skipped
	return nil
}

// Fail marks a pending entry failed: the user's explicit give-up after an
// execution error they don't want to retry.
func (b *Batch) Fail(i int) error {
	e, err := b.entry(i, "fail")
	if err != nil {
		return err
	}
	if e.Status != Pending || e.executing {
		return &TransitionError{State: e.Status.String(), Event: "fail"}
	}
	e.Status = Failed
	return nil
}
