package tools

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var coded *CodedError
	require.True(t, errors.As(err, &coded), "expected CodedError, got %v", err)
	return coded.Code
}

func TestInboundsList_ExpandsAndCompacts(t *testing.T) {
	p := newTestPanel(t)
	d := newTestDeps(t, p)

	_, out, err := ToolInboundsList(d)(context.Background(), nil, InboundsListInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.False(t, out.Cached)

	inbounds := out.Inbounds.([]any)
	first := inbounds[0].(map[string]any)
	settings := first["settings"].(map[string]any)
	clients := settings["clients"].([]any)
	// Compacted to two clients plus a marker.
	assert.Len(t, clients, 3)
	assert.Equal(t, "... (1 more items)", clients[2])
	assert.Equal(t, "tcp", first["streamSettings"].(map[string]any)["network"])
}

func TestInboundsList_RawAndCached(t *testing.T) {
	p := newTestPanel(t)
	d := newTestDeps(t, p)
	handler := ToolInboundsList(d)
	raw := InboundsListInput{Expand: ptr(false), Compact: ptr(false)}

	_, out, err := handler(context.Background(), nil, raw)
	require.NoError(t, err)
	first := out.Inbounds.([]any)[0].(map[string]any)
	assert.IsType(t, "", first["settings"])

	_, out, err = handler(context.Background(), nil, raw)
	require.NoError(t, err)
	assert.True(t, out.Cached)
	assert.Equal(t, 1, p.count("/panel/api/inbounds/list"))

	_, out, err = handler(context.Background(), nil, InboundsListInput{Refresh: true})
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, 2, p.count("/panel/api/inbounds/list"))
}

func TestInboundGet(t *testing.T) {
	p := newTestPanel(t)
	d := newTestDeps(t, p)
	handler := ToolInboundGet(d)

	_, out, err := handler(context.Background(), nil, InboundGetInput{ID: 1})
	require.NoError(t, err)
	inbound := out.Inbound.(map[string]any)
	assert.Equal(t, "de-443", inbound["remark"])
	assert.Equal(t, map[string]any{"clients": []any{}}, inbound["settings"])

	_, _, err = handler(context.Background(), nil, InboundGetInput{ID: 7})
	require.Error(t, err)
	assert.Equal(t, ErrCodePanelError, codeOf(t, err))
	assert.Contains(t, err.Error(), "record not found")

	_, _, err = handler(context.Background(), nil, InboundGetInput{ID: 0})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))
}

func TestClientTraffic_MixedResults(t *testing.T) {
	p := newTestPanel(t)
	d := newTestDeps(t, p)

	_, out, err := ToolClientTraffic(d)(context.Background(), nil, ClientTrafficInput{
		Emails: []string{"a@x", "missing@x", "broken@x"},
		UUIDs:  []string{"uuid-b"},
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 4)
	assert.Equal(t, 2, out.Failed)

	assert.Equal(t, "email", out.Results[0].Kind)
	assert.Equal(t, "a@x", out.Results[0].Key)
	assert.Equal(t, "a@x", out.Results[0].Traffic.(map[string]any)["email"])
	assert.Empty(t, out.Results[0].Error)

	assert.Contains(t, out.Results[1].Error, ErrCodeNotFound)
	assert.Nil(t, out.Results[1].Traffic)

	assert.Contains(t, out.Results[2].Error, ErrCodePanelError)
	assert.Contains(t, out.Results[2].Error, "database is locked")

	assert.Equal(t, "uuid", out.Results[3].Kind)
	assert.Len(t, out.Results[3].Traffic.([]any), 1)
}

func TestClientTraffic_InvalidInput(t *testing.T) {
	d := newTestDeps(t, newTestPanel(t))
	handler := ToolClientTraffic(d)

	_, _, err := handler(context.Background(), nil, ClientTrafficInput{})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))

	many := make([]string, maxTrafficLookups+1)
	for i := range many {
		many[i] = "c@x"
	}
	_, _, err = handler(context.Background(), nil, ClientTrafficInput{Emails: many})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))
}

func TestBackup(t *testing.T) {
	p := newTestPanel(t)
	d := newTestDeps(t, p)

	_, out, err := ToolBackup(d)(context.Background(), nil, BackupInput{})
	require.NoError(t, err)
	assert.Equal(t, BackupOutput{Status: http.StatusOK, OK: true}, out)

	p.setBackupStatus(http.StatusForbidden)
	_, out, err = ToolBackup(d)(context.Background(), nil, BackupInput{})
	require.NoError(t, err)
	assert.Equal(t, BackupOutput{Status: http.StatusForbidden}, out)
}

func TestQuery(t *testing.T) {
	d := newTestDeps(t, newTestPanel(t))
	handler := ToolQuery(d)

	tests := []struct {
		name  string
		input QueryInput
		want  []any
	}{
		{
			name:  "remarks",
			input: QueryInput{Expression: ".obj[].remark"},
			want:  []any{"de-443", "nl-8443"},
		},
		{
			name:  "fromjson",
			input: QueryInput{Expression: ".obj[0].settings | fromjson | .clients[].email", MaxResults: 2},
			want:  []any{"a@x", "b@x"},
		},
		{
			name:  "expand",
			input: QueryInput{Expression: ".obj[].settings.clients | length", Expand: true},
			want:  []any{3, 0},
		},
		{
			name:  "traffic target",
			input: QueryInput{Expression: ".obj.up + .obj.down", Target: TargetTrafficEmail, Key: "a@x"},
			want:  []any{float64(3)},
		},
		{
			name:  "dedupe",
			input: QueryInput{Expression: ".obj[].sniffing", Deduplicate: true},
			want:  []any{"{}"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := handler(context.Background(), nil, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Values)
			assert.Empty(t, out.Errors)
		})
	}
}

func TestQuery_Truncated(t *testing.T) {
	d := newTestDeps(t, newTestPanel(t))

	_, out, err := ToolQuery(d)(context.Background(), nil, QueryInput{Expression: ".obj[].id", MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1)}, out.Values)
	assert.True(t, out.Truncated)

	_, out, err = ToolQuery(d)(context.Background(), nil, QueryInput{Expression: ".obj[].id", MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, out.Values)
	assert.False(t, out.Truncated)
}

func TestQuery_InvalidInput(t *testing.T) {
	d := newTestDeps(t, newTestPanel(t))
	handler := ToolQuery(d)

	for _, input := range []QueryInput{
		{},
		{Expression: ".obj["},
		{Expression: ".", Target: "users"},
		{Expression: ".", Target: TargetInbound, Key: "abc"},
		{Expression: ".", Target: TargetTrafficUUID},
	} {
		_, _, err := handler(context.Background(), nil, input)
		assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err), "%+v", input)
	}
}

func TestValidate(t *testing.T) {
	d := newTestDeps(t, newTestPanel(t))
	handler := ToolValidate(d)

	_, out, err := handler(context.Background(), nil, ValidateInput{})
	require.NoError(t, err)
	assert.True(t, out.Valid, out.Errors)
	assert.Equal(t, "builtin:inbounds", out.Schema)

	_, out, err = handler(context.Background(), nil, ValidateInput{Target: TargetTrafficUUID, Key: "uuid-b"})
	require.NoError(t, err)
	assert.True(t, out.Valid, out.Errors)

	custom := `{"type":"object","properties":{"obj":{"type":"array","maxItems":1}}}`
	_, out, err = handler(context.Background(), nil, ValidateInput{Schema: custom})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Equal(t, "custom", out.Schema)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "/obj")

	_, _, err = handler(context.Background(), nil, ValidateInput{Schema: "{"})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))
}

func TestFetch_AuthFailure(t *testing.T) {
	p := newTestPanel(t)
	d := newTestDeps(t, p)
	d.Client = newUnauthenticatedClient(t, p)

	_, _, err := d.Fetch(context.Background(), TargetInbounds, "", true)
	assert.Equal(t, ErrCodeAuthFailed, codeOf(t, err))
}

func TestFetch_FailedRefreshDropsCachedEntry(t *testing.T) {
	p := newTestPanel(t)
	d := newTestDeps(t, p)
	ctx := context.Background()

	_, cached, err := d.Fetch(ctx, TargetInbounds, "", false)
	require.NoError(t, err)
	assert.False(t, cached)

	p.setFailList(true)
	_, _, err = d.Fetch(ctx, TargetInbounds, "", true)
	assert.Equal(t, ErrCodePanelError, codeOf(t, err))
	_, ok := d.Cache.Get(TargetInbounds + "/")
	assert.False(t, ok)

	p.setFailList(false)
	_, cached, err = d.Fetch(ctx, TargetInbounds, "", false)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 3, p.count("/panel/api/inbounds/list"))
}

func TestReadThroughToolsFillCache(t *testing.T) {
	p := newTestPanel(t)
	d := newTestDeps(t, p)
	ctx := context.Background()

	for range 2 {
		_, _, err := ToolInboundGet(d)(ctx, nil, InboundGetInput{ID: 1})
		require.NoError(t, err)
		_, _, err = ToolClientTraffic(d)(ctx, nil, ClientTrafficInput{Emails: []string{"a@x"}})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, p.count("/panel/api/inbounds/get/1"))
	assert.Equal(t, 2, p.count("/panel/api/inbounds/getClientTraffics/a@x"))

	// Cached reads of the same targets skip the panel.
	_, out, err := ToolQuery(d)(ctx, nil, QueryInput{Expression: ".obj.remark", Target: TargetInbound, Key: "1"})
	require.NoError(t, err)
	assert.Equal(t, []any{"de-443"}, out.Values)
	_, out, err = ToolQuery(d)(ctx, nil, QueryInput{Expression: ".obj.up", Target: TargetTrafficEmail, Key: "a@x"})
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1)}, out.Values)

	assert.Equal(t, 2, p.count("/panel/api/inbounds/get/1"))
	assert.Equal(t, 2, p.count("/panel/api/inbounds/getClientTraffics/a@x"))
}
