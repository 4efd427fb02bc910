package main

import (
	"encoding/json"
	"time"

	"vira/command"
)

// Messages delivered to the TUI by recording ticks and completed network
// calls. Tokened messages are matched against the workflow machines, which
// discard anything stale.

type recordElapsedMsg struct{ Elapsed time.Duration }

type interpretDoneMsg struct {
	Token  uint64
	Text   string
	Action command.Action
}

type interpretFailedMsg struct {
	Token uint64
	Err   error
}

type execDoneMsg struct{ Result json.RawMessage }

type execFailedMsg struct{ Err error }

type parseDoneMsg struct {
	Token   uint64
	Actions []command.Action
}

type parseFailedMsg struct {
	Token uint64
	Err   error
}

type entryExecDoneMsg struct {
	Index  int
	Result json.RawMessage
}

type entryExecFailedMsg struct {
	Index int
	Err   error
}
