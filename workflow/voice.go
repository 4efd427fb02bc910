// Package workflow holds the interaction state machines between the user
// and the tracker: a single-command voice machine and a batch transcript
// machine. Both are pure state holders with no I/O of their own; the caller
// performs the network calls its transitions demand and feeds completions
// back in. All completion events carry the request token they were issued
// under, and a completion whose token is no longer the latest is discarded,
// so a slow response can never overwrite a newer edit.
package workflow

import "vira/command"

type Phase int

const (
	Idle Phase = iota
	Recording
	Transcribing
	AwaitingConfirmation
	Submitting
	Errored
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	case AwaitingConfirmation:
		return "awaiting-confirmation"
	case Submitting:
		return "submitting"
	case Errored:
		return "error"
	default:
		return "unknown"
	}
}

// Voice drives the single-command path: record, transcribe, confirm or
// edit, execute. Exactly one phase is live at a time and every mutation
// goes through a transition method, so illegal combinations (a command with
// no transcript, confirming while submitting) cannot be represented.
type Voice struct {
	phase   Phase
	rawText string
	action  command.Action
	errMsg  string
	token   uint64
}

func NewVoice() *Voice {
	return &Voice{phase: Idle}
}

func (v *Voice) Phase() Phase           { return v.phase }
func (v *Voice) RawText() string        { return v.rawText }
func (v *Voice) Action() command.Action { return v.action }
func (v *Voice) ErrMessage() string     { return v.errMsg }

// Token reports the latest issued interpretation token.
func (v *Voice) Token() uint64 { return v.token }

func (v *Voice) fail(event string) *TransitionError {
	return &TransitionError{State: v.phase.String(), Event: event}
}

// StartCapture begins a recording session. Idle → Recording.
func (v *Voice) StartCapture() error {
	if v.phase != Idle {
		return v.fail("start-capture")
	}
	v.phase = Recording
	return nil
}

// StopCapture finalizes the recording and issues an interpretation token
// the caller must attach to the resulting InterpretDone/InterpretFailed.
// Recording → Transcribing.
func (v *Voice) StopCapture() (uint64, error) {
	if v.phase != Recording {
		return 0, v.fail("stop-capture")
	}
	v.phase = Transcribing
	v.token++
	return v.token, nil
}

// CaptureFailed aborts a recording that could not produce a payload.
// Recording → Errored.
func (v *Voice) CaptureFailed(err error) error {
	if v.phase != Recording {
		return v.fail("capture-failed")
	}
	v.phase = Errored
	v.errMsg = err.Error()
	return nil
}

// InterpretDone applies a successful interpretation. Returns false when the
// result is stale (the text changed again before this response arrived) or
// the machine has left Transcribing; a discarded result changes nothing.
func (v *Voice) InterpretDone(token uint64, text string, action command.Action) bool {
	if v.phase != Transcribing || token != v.token {
		return false
	}
	v.rawText = text
	v.action = action
	v.phase = AwaitingConfirmation
	return true
}

// InterpretFailed applies a failed interpretation, subject to the same
// staleness rule as InterpretDone. Transcribing → Errored.
func (v *Voice) InterpretFailed(token uint64, err error) bool {
	if v.phase != Transcribing || token != v.token {
		return false
	}
	v.errMsg = err.Error()
	v.phase = Errored
	return true
}

// Edit replaces the raw text and demands a fresh interpretation. The action
// attached to the old text is discarded immediately; the returned token
// supersedes any outstanding request, whose response will now be thrown
// away when it lands. Allowed from AwaitingConfirmation and, because the
// user may keep typing while a parse is in flight, from Transcribing.
func (v *Voice) Edit(text string) (uint64, error) {
	if v.phase != AwaitingConfirmation && v.phase != Transcribing {
		return 0, v.fail("edit")
	}
	v.rawText = text
	v.action = command.Action{}
	v.phase = Transcribing
	v.token++
	return v.token, nil
}

// Confirm hands the action over for execution, exactly once.
// AwaitingConfirmation → Submitting.
func (v *Voice) Confirm() (command.Action, error) {
	if v.phase != AwaitingConfirmation {
		return command.Action{}, v.fail("confirm")
	}
	v.phase = Submitting
	return v.action, nil
}

// Cancel abandons the pending action. AwaitingConfirmation → Idle.
func (v *Voice) Cancel() error {
	if v.phase != AwaitingConfirmation {
		return v.fail("cancel")
	}
	v.reset()
	return nil
}

// ExecDone records a successful execution and clears the workflow.
// Submitting → Idle.
func (v *Voice) ExecDone() error {
	if v.phase != Submitting {
		return v.fail("exec-done")
	}
	v.reset()
	return nil
}

// ExecFailed records a failed execution. Submitting → Errored.
func (v *Voice) ExecFailed(err error) error {
	if v.phase != Submitting {
		return v.fail("exec-failed")
	}
	v.errMsg = err.Error()
	v.phase = Errored
	return nil
}

// Acknowledge dismisses the error message. Errored → Idle. There is no
// auto-clear: only the user's explicit acknowledgment leaves the error
// state.
func (v *Voice) Acknowledge() error {
	if v.phase != Errored {
		return v.fail("acknowledge")
	}
	v.reset()
	return nil
}

func (v *Voice) reset() {
	v.phase = Idle
	v.rawText = ""
	v.action = command.Action{}
	v.errMsg = ""
}
