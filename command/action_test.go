package command

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalCreateIssue(t *testing.T) {
	raw := `{"action":"create_issue","project_key":"PROJ","summary":"bug for login","description":"login page 500s","priority":"High"}`

	var a Action
	require.NoError(t, json.Unmarshal([]byte(raw), &a))

	assert.Equal(t, KindCreateIssue, a.Kind)
	assert.Equal(t, "PROJ", a.ProjectKey)
	assert.Equal(t, "bug for login", a.Summary)
	assert.Equal(t, "login page 500s", a.Description)
	assert.Equal(t, "High", a.Priority)
	assert.Empty(t, a.Assignee)
	assert.JSONEq(t, raw, string(a.Raw))
}

func TestUnmarshalQueryTasks(t *testing.T) {
	raw := `{"action":"query_tasks","filters":{"status":"In Progress","assignee":"alice"}}`

	var a Action
	require.NoError(t, json.Unmarshal([]byte(raw), &a))

	assert.Equal(t, KindQueryTasks, a.Kind)
	want := map[string]string{"status": "In Progress", "assignee": "alice"}
	if diff := cmp.Diff(want, a.Filters); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalCommentAndStatus(t *testing.T) {
	var comment Action
	require.NoError(t, json.Unmarshal([]byte(`{"action":"update_comment","task_id":"PROJ-12","comment":"fixed"}`), &comment))
	assert.Equal(t, KindAddComment, comment.Kind)
	assert.Equal(t, "PROJ-12", comment.TaskID)
	assert.Equal(t, "fixed", comment.Comment)

	var status Action
	require.NoError(t, json.Unmarshal([]byte(`{"action":"update_status","task_id":"PROJ-12","status":"Done"}`), &status))
	assert.Equal(t, KindUpdateStatus, status.Kind)
	assert.Equal(t, "Done", status.Status)
}

func TestUnmarshalUnknownKindKeepsRaw(t *testing.T) {
	raw := `{"action":"reticulate_splines","knob":7}`

	var a Action
	require.NoError(t, json.Unmarshal([]byte(raw), &a))

	assert.Equal(t, KindUnknown, a.Kind)
	assert.JSONEq(t, raw, string(a.Raw))
}

func TestMarshalForwardsRawVerbatim(t *testing.T) {
	raw := `{"action":"create_issue","project_key":"PROJ","summary":"s","extra_field":"kept"}`

	var a Action
	require.NoError(t, json.Unmarshal([]byte(raw), &a))

	out, err := json.Marshal(a)
	require.NoError(t, err)
	// Fields this package doesn't model must survive the round trip.
	assert.JSONEq(t, raw, string(out))
}

func TestMarshalWithoutRaw(t *testing.T) {
	a := Action{Kind: KindAddComment, TaskID: "PROJ-1", Comment: "hello"}
	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"update_comment","task_id":"PROJ-1","comment":"hello"}`, string(out))
}

func TestDescribe(t *testing.T) {
	a := Action{
		Kind:       KindCreateIssue,
		ProjectKey: "PROJ",
		Summary:    "bug for login",
	}
	lines := a.Describe()
	assert.Equal(t, []string{"Project: PROJ", "Summary: bug for login"}, lines)
	assert.Equal(t, "Create Issue", a.Label())
}

func TestDescribeQueryFiltersSorted(t *testing.T) {
	a := Action{Kind: KindQueryTasks, Filters: map[string]string{"status": "Open", "assignee": "bob"}}
	assert.Equal(t, []string{"assignee: bob", "status: Open"}, a.Describe())
}

func TestIsZero(t *testing.T) {
	assert.True(t, Action{}.IsZero())
	assert.False(t, Action{Kind: KindUnknown, Raw: json.RawMessage(`{}`)}.IsZero())
}
