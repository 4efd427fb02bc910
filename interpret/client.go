// Package interpret converts captured audio or raw text into structured
// actions by delegating to the backend's transcription and parsing
// endpoints. It never retries: a retry is always an explicit re-invocation
// by the user, so a flaky network can't double-submit anything downstream.
package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"vira/api"
	"vira/command"
)

// ErrTranscriptionFailed wraps transport-level failures of the audio path:
// the service was unreachable or rejected the input before producing text.
var ErrTranscriptionFailed = errors.New("transcription failed")

type Client struct {
	api *api.Client
}

func NewClient(a *api.Client) *Client {
	return &Client{api: a}
}

// InterpretAudio sends one encoded recording and gets back both the
// transcript text and the parser's best-effort action in a single round
// trip. The call is atomic: on error neither text nor action is returned.
func (c *Client) InterpretAudio(ctx context.Context, audio []byte, format string) (string, command.Action, error) {
	resp, err := c.api.PostMultipart(ctx, "/transcribe", "audio", "recording."+format, audio, nil)
	if err != nil {
		var se *api.ServiceError
		if errors.As(err, &se) {
			return "", command.Action{}, err
		}
		return "", command.Action{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	var out struct {
		Transcription string         `json:"transcription"`
		Command       command.Action `json:"command"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", command.Action{}, fmt.Errorf("decoding transcribe response: %w", err)
	}
	return out.Transcription, out.Command, nil
}

// InterpretText re-parses edited text into an action. Deterministic for the
// same text and project context, which keeps edit-driven re-interpretation
// replayable.
func (c *Client) InterpretText(ctx context.Context, text, projectKey string) (command.Action, error) {
	body := struct {
		Transcription string `json:"transcription"`
		ProjectKey    string `json:"projectKey,omitempty"`
	}{Transcription: text, ProjectKey: projectKey}

	resp, err := c.api.PostJSON(ctx, "/transcribe/parse", body)
	if err != nil {
		return command.Action{}, err
	}

	var out struct {
		Command command.Action `json:"command"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return command.Action{}, fmt.Errorf("decoding parse response: %w", err)
	}
	return out.Command, nil
}

// InterpretTranscript extracts zero or more actions from a meeting
// transcript. An empty result is success: a transcript with nothing
// actionable in it is not an error.
func (c *Client) InterpretTranscript(ctx context.Context, text string) ([]command.Action, error) {
	body := struct {
		Transcript string `json:"transcript"`
	}{Transcript: text}

	resp, err := c.api.PostJSON(ctx, "/parse-command", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		Actions []command.Action `json:"actions"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decoding transcript response: %w", err)
	}
	return out.Actions, nil
}
