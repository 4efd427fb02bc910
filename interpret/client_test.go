package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vira/api"
	"vira/command"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(api.New(srv.URL, ""))
}

func TestInterpretAudio(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hdr, err := r.FormFile("audio")
		require.NoError(t, err)
		assert.Equal(t, "recording.flac", hdr.Filename)

		w.Write([]byte(`{
			"transcription": "create bug for login",
			"command": {"action":"create_issue","summary":"bug for login"}
		}`))
	})

	text, action, err := c.InterpretAudio(context.Background(), []byte("flacdata"), "flac")
	require.NoError(t, err)
	assert.Equal(t, "create bug for login", text)
	assert.Equal(t, command.KindCreateIssue, action.Kind)
	assert.Equal(t, "bug for login", action.Summary)
}

func TestInterpretAudioServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad audio", http.StatusUnprocessableEntity)
	})

	text, action, err := c.InterpretAudio(context.Background(), []byte("x"), "wav")
	require.Error(t, err)

	var se *api.ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)

	// Atomic: no partial transcript, no guessed action.
	assert.Empty(t, text)
	assert.True(t, action.IsZero())
}

func TestInterpretAudioUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(api.New(srv.URL, ""))
	_, _, err := c.InterpretAudio(context.Background(), []byte("x"), "wav")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranscriptionFailed))
}

func TestInterpretText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe/parse", r.URL.Path)
		body, _ := io.ReadAll(r.Body)

		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "add comment to PROJ-7 saying done", req["transcription"])
		assert.Equal(t, "PROJ", req["projectKey"])

		w.Write([]byte(`{"command":{"action":"update_comment","task_id":"PROJ-7","comment":"done"}}`))
	})

	action, err := c.InterpretText(context.Background(), "add comment to PROJ-7 saying done", "PROJ")
	require.NoError(t, err)
	assert.Equal(t, command.KindAddComment, action.Kind)
	assert.Equal(t, "PROJ-7", action.TaskID)
}

func TestInterpretTranscript(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse-command", r.URL.Path)
		w.Write([]byte(`{"actions":[
			{"action":"create_issue","summary":"ticket for the outage"},
			{"action":"update_status","task_id":"PROJ-3","status":"Done"}
		]}`))
	})

	actions, err := c.InterpretTranscript(context.Background(), "Alice will file a ticket for the outage")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, command.KindCreateIssue, actions[0].Kind)
	assert.Equal(t, command.KindUpdateStatus, actions[1].Kind)
}

func TestInterpretTranscriptEmptyIsSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"actions":[]}`))
	})

	actions, err := c.InterpretTranscript(context.Background(), "nothing actionable was said")
	require.NoError(t, err)
	assert.Empty(t, actions)
}
