// Package command defines the structured action representation produced by
// the interpretation backend and consumed by the execution gateway. Actions
// are immutable once decoded: editing the source text always produces a
// fresh Action rather than mutating an existing one.
package command

import (
	"encoding/json"
	"fmt"
	"sort"
)

type Kind string

const (
	KindQueryTasks   Kind = "query_tasks"
	KindCreateIssue  Kind = "create_issue"
	KindAddComment   Kind = "update_comment"
	KindUpdateStatus Kind = "update_status"
	KindUnknown      Kind = "unknown"
)

// Action is a tagged variant. Only the fields belonging to Kind are
// populated; Raw always preserves the parser's original wire object so the
// gateway can forward it verbatim.
type Action struct {
	Kind Kind

	// query_tasks
	Filters map[string]string

	// create_issue
	ProjectKey  string
	Summary     string
	Description string
	Assignee    string
	Priority    string

	// update_comment / update_status
	TaskID  string
	Comment string
	Status  string

	Raw json.RawMessage
}

// wireAction is the flat JSON object the parsing service emits:
// {"action": "<kind>", ...kind-specific fields}.
type wireAction struct {
	Action      string            `json:"action"`
	Filters     map[string]string `json:"filters,omitempty"`
	ProjectKey  string            `json:"project_key,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Description string            `json:"description,omitempty"`
	Assignee    string            `json:"assignee,omitempty"`
	Priority    string            `json:"priority,omitempty"`
	TaskID      string            `json:"task_id,omitempty"`
	Comment     string            `json:"comment,omitempty"`
	Status      string            `json:"status,omitempty"`
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding action: %w", err)
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)

	switch Kind(w.Action) {
	case KindQueryTasks:
		*a = Action{Kind: KindQueryTasks, Filters: w.Filters, Raw: raw}
	case KindCreateIssue:
		*a = Action{
			Kind:        KindCreateIssue,
			ProjectKey:  w.ProjectKey,
			Summary:     w.Summary,
			Description: w.Description,
			Assignee:    w.Assignee,
			Priority:    w.Priority,
			Raw:         raw,
		}
	case KindAddComment:
		*a = Action{Kind: KindAddComment, TaskID: w.TaskID, Comment: w.Comment, Raw: raw}
	case KindUpdateStatus:
		*a = Action{Kind: KindUpdateStatus, TaskID: w.TaskID, Status: w.Status, Raw: raw}
	default:
		// Unrecognized kind: keep the payload so it can still be shown and
		// forwarded, but don't guess at fields.
		*a = Action{Kind: KindUnknown, Raw: raw}
	}
	return nil
}

// MarshalJSON forwards the original wire object untouched when present, so a
// round trip through this package never drops fields the parser produced.
func (a Action) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	w := wireAction{
		Action:      string(a.Kind),
		Filters:     a.Filters,
		ProjectKey:  a.ProjectKey,
		Summary:     a.Summary,
		Description: a.Description,
		Assignee:    a.Assignee,
		Priority:    a.Priority,
		TaskID:      a.TaskID,
		Comment:     a.Comment,
		Status:      a.Status,
	}
	return json.Marshal(w)
}

func (a Action) IsZero() bool {
	return a.Kind == "" && len(a.Raw) == 0
}

// Label is the short human name shown in list rows and headers.
func (a Action) Label() string {
	switch a.Kind {
	case KindQueryTasks:
		return "Query Tasks"
	case KindCreateIssue:
		return "Create Issue"
	case KindAddComment:
		return "Add Comment"
	case KindUpdateStatus:
		return "Update Status"
	default:
		return "Unknown Action"
	}
}

// Describe renders one "Field: value" line per populated field, for the
// confirmation panel.
func (a Action) Describe() []string {
	var lines []string
	add := func(field, value string) {
		if value != "" {
			lines = append(lines, field+": "+value)
		}
	}

	switch a.Kind {
	case KindQueryTasks:
		keys := make([]string, 0, len(a.Filters))
		for k := range a.Filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(k, a.Filters[k])
		}
	case KindCreateIssue:
		add("Project", a.ProjectKey)
		add("Summary", a.Summary)
		add("Description", a.Description)
		add("Assignee", a.Assignee)
		add("Priority", a.Priority)
	case KindAddComment:
		add("Task", a.TaskID)
		add("Comment", a.Comment)
	case KindUpdateStatus:
		add("Task", a.TaskID)
		add("New Status", a.Status)
	default:
		add("Raw", string(a.Raw))
	}
	return lines
}
