package workflow

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vira/command"
)

func parsedBatch(t *testing.T, actions ...command.Action) *Batch {
	t.Helper()
	b := NewBatch()
	token, err := b.BeginParse("Alice will file a ticket for the outage")
	require.NoError(t, err)
	require.True(t, b.ParseDone(token, actions))
	return b
}

func TestBatchParseProducesPendingEntries(t *testing.T) {
	b := parsedBatch(t, actionWithSummary("ticket for the outage"))

	assert.Equal(t, Reviewing, b.Phase())
	entries := b.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, Pending, entries[0].Status)
	assert.Equal(t, "ticket for the outage", entries[0].Action.Summary)
}

func TestBatchParseEmptyTranscriptRejected(t *testing.T) {
	b := NewBatch()
	_, err := b.BeginParse("   \n ")
	assert.ErrorIs(t, err, ErrEmptyTranscript)
	assert.Equal(t, BatchIdle, b.Phase())
}

func TestBatchParseZeroActionsIsSuccess(t *testing.T) {
	b := NewBatch()
	token, err := b.BeginParse("nothing actionable here")
	require.NoError(t, err)
	require.True(t, b.ParseDone(token, nil))

	assert.Equal(t, Reviewing, b.Phase())
	assert.Zero(t, b.Len())
	assert.Empty(t, b.ErrMessage())
}

func TestBatchReparseRejectedWhileParsing(t *testing.T) {
	b := NewBatch()
	_, err := b.BeginParse("first transcript")
	require.NoError(t, err)

	_, err = b.BeginParse("second transcript")
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "parsing", te.State)
}

func TestBatchReparseReplacesEntriesWholesale(t *testing.T) {
	b := parsedBatch(t,
		actionWithSummary("first"),
		actionWithSummary("second"),
	)
	require.NoError(t, b.Skip(0)) // terminal status on an old entry

	token, err := b.BeginParse("a completely new transcript")
	require.NoError(t, err)
	require.True(t, b.ParseDone(token, []command.Action{actionWithSummary("third")}))

	entries := b.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "third", entries[0].Action.Summary)
	assert.Equal(t, Pending, entries[0].Status, "no entry from a previous parse survives")
}

func TestBatchStaleParseDiscarded(t *testing.T) {
	b := parsedBatch(t, actionWithSummary("keep me"))

	first, err := b.BeginParse("new text")
	require.NoError(t, err)
	require.True(t, b.ParseFailed(first, errors.New("timeout")))

	second, err := b.BeginParse("newer text")
	require.NoError(t, err)

	// The first request's late duplicate completion is ignored.
	assert.False(t, b.ParseDone(first, []command.Action{actionWithSummary("stale")}))

	require.True(t, b.ParseDone(second, []command.Action{actionWithSummary("fresh")}))
	assert.Equal(t, "fresh", b.Entries()[0].Action.Summary)
}

func TestBatchParseFailedKeepsPriorEntries(t *testing.T) {
	b := parsedBatch(t, actionWithSummary("survivor"))

	token, err := b.BeginParse("bad transcript")
	require.NoError(t, err)
	require.True(t, b.ParseFailed(token, errors.New("503 Service Unavailable")))

	assert.Equal(t, Reviewing, b.Phase())
	assert.Equal(t, "503 Service Unavailable", b.ErrMessage())
	require.Len(t, b.Entries(), 1)
	assert.Equal(t, "survivor", b.Entries()[0].Action.Summary)
}

func TestBatchExecuteOnce(t *testing.T) {
	b := parsedBatch(t, actionWithSummary("ticket for the outage"))

	action, err := b.BeginExecute(0)
	require.NoError(t, err)
	assert.Equal(t, "ticket for the outage", action.Summary)

	// Confirm clicked again while the request is in flight: no-op.
	_, err = b.BeginExecute(0)
	var te *TransitionError
	require.True(t, errors.As(err, &te))

	require.NoError(t, b.ExecDone(0, json.RawMessage(`{"key":"PROJ-1"}`)))
	entry := b.Entries()[0]
	assert.Equal(t, Completed, entry.Status)
	assert.JSONEq(t, `{"key":"PROJ-1"}`, string(entry.Result))

	// And again after completion: still a no-op.
	_, err = b.BeginExecute(0)
	require.True(t, errors.As(err, &te))
}

func TestBatchExecFailedStaysPending(t *testing.T) {
	b := parsedBatch(t,
		actionWithSummary("failing entry"),
		actionWithSummary("sibling"),
	)

	_, err := b.BeginExecute(0)
	require.NoError(t, err)
	require.NoError(t, b.ExecFailed(0, errors.New("server responded with 500 Internal Server Error")))

	entries := b.Entries()
	assert.Equal(t, Pending, entries[0].Status, "failed execution keeps the entry retryable")
	assert.Contains(t, entries[0].Err, "500 Internal Server Error")
	assert.Equal(t, Pending, entries[1].Status, "siblings unaffected")
	assert.Empty(t, entries[1].Err)

	// Retry is allowed and clears the stored error.
	_, err = b.BeginExecute(0)
	require.NoError(t, err)
	assert.Empty(t, b.Entries()[0].Err)
	require.NoError(t, b.ExecDone(0, nil))
	assert.Equal(t, Completed, b.Entries()[0].Status)
}

func TestBatchSkipAndFail(t *testing.T) {
	b := parsedBatch(t, actionWithSummary("a"), actionWithSummary("b"))

	require.NoError(t, b.Skip(0))
	assert.Equal(t, Skipped, b.Entries()[0].Status)

	require.NoError(t, b.Fail(1))
	assert.Equal(t, Failed, b.Entries()[1].Status)

	// Terminal entries reject every further event.
	var te *TransitionError
	assert.True(t, errors.As(b.Skip(0), &te))
	assert.True(t, errors.As(b.Fail(0), &te))
	_, err := b.BeginExecute(1)
	assert.True(t, errors.As(err, &te))
}

func TestBatchSkipRejectedWhileExecuting(t *testing.T) {
	b := parsedBatch(t, actionWithSummary("busy"))
	_, err := b.BeginExecute(0)
	require.NoError(t, err)

	var te *TransitionError
	assert.True(t, errors.As(b.Skip(0), &te))
	assert.True(t, b.Entries()[0].Executing())
}

func TestBatchIndexOutOfRange(t *testing.T) {
	b := parsedBatch(t, actionWithSummary("only"))
	var te *TransitionError
	_, err := b.BeginExecute(5)
	assert.True(t, errors.As(err, &te))
	assert.True(t, errors.As(b.Skip(-1), &te))
}
