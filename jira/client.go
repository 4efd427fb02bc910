// Package jira is the execution gateway: it submits confirmed actions to
// the tracker backend and lists the projects available for the session.
// Idempotency is NOT guaranteed here; the workflow engine is responsible
// for invoking Execute at most once per confirmed action.
package jira

import (
	"context"
	"encoding/json"
	"fmt"

	"vira/api"
	"vira/command"
)

type Project struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Client struct {
	api *api.Client
}

func NewClient(a *api.Client) *Client {
	return &Client{api: a}
}

// Projects fetches the tracker's project list, once per session.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	resp, err := c.api.Get(ctx, "/jira/projects")
	if err != nil {
		return nil, err
	}
	var projects []Project
	if err := json.Unmarshal(resp.Body, &projects); err != nil {
		return nil, fmt.Errorf("decoding project list: %w", err)
	}
	return projects, nil
}

// Execute submits one action in one call and returns the tracker's response
// verbatim. No retries: on failure the caller decides what happens next.
func (c *Client) Execute(ctx context.Context, action command.Action, projectKey string) (json.RawMessage, error) {
	path := "/execute-action"
	body := map[string]any{"action": action}
	if projectKey != "" {
		path = "/jira/execute"
		body["projectKey"] = projectKey
	}

	resp, err := c.api.PostJSON(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}
