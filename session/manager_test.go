package session

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/store"
	"github.com/ninaia/memoria/types"
)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	docs, err := store.NewFileDocumentStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return NewManager(docs, zap.NewNop(), opts...)
}

var sessionIDPattern = regexp.MustCompile(`^\d{14}\.[0-9a-f]{8}$`)

func TestCreateSession_IDFormat(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	a, err := m.CreateSession(ctx, "primeira")
	require.NoError(t, err)
	b, err := m.CreateSession(ctx, "")
	require.NoError(t, err)

	assert.Regexp(t, sessionIDPattern, a)
	assert.Regexp(t, sessionIDPattern, b)
	assert.NotEqual(t, a, b)
}

func TestAddAndGetMessages(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.CreateSession(ctx, "chat")
	require.NoError(t, err)

	idx, err := m.AddMessage(ctx, id, types.RoleUser, "oi", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = m.AddMessage(ctx, id, types.RoleAssistant, "olá!", map[string]any{"model": "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	got, err := m.GetMessages(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "oi", got[0].Content)
	assert.Equal(t, "x", got[1].Metadata["model"])
}

func TestAddMessage_UnknownSession(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	_, err := m.AddMessage(context.Background(), "20200101000000.deadbeef", types.RoleUser, "oi", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrSessionNotFound, types.GetErrorCode(err))
}

func TestAddMessage_InvalidRole(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.CreateSession(ctx, "chat")
	require.NoError(t, err)

	_, err = m.AddMessage(ctx, id, "narrator", "oi", nil)
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

func TestGetMessages_LimitAndRoles(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.CreateSession(ctx, "chat")
	require.NoError(t, err)

	for i, msg := range []struct{ role, content string }{
		{types.RoleSystem, "prompt"},
		{types.RoleUser, "um"},
		{types.RoleAssistant, "dois"},
		{types.RoleUser, "três"},
	} {
		_, err := m.AddMessage(ctx, id, msg.role, msg.content, nil)
		require.NoError(t, err, "message %d", i)
	}

	users, err := m.GetMessages(ctx, id, 0, types.RoleUser)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "um", users[0].Content)

	last, err := m.GetMessages(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "dois", last[0].Content)
	assert.Equal(t, "três", last[1].Content)
}

func TestGetMessagesForLLM(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.CreateSession(ctx, "chat")
	require.NoError(t, err)

	for _, msg := range []struct{ role, content string }{
		{types.RoleSystem, "prompt antigo"},
		{types.RoleUser, "oi"},
		{types.RoleSystem, "prompt novo"},
		{types.RoleAssistant, "olá"},
	} {
		_, err := m.AddMessage(ctx, id, msg.role, msg.content, nil)
		require.NoError(t, err)
	}

	view, err := m.GetMessagesForLLM(ctx, id, 0, 0)
	require.NoError(t, err)

	// Most recent system message wins; none leak into the list.
	assert.Equal(t, "prompt novo", view.SystemPrompt)
	require.Len(t, view.Messages, 2)
	for _, msg := range view.Messages {
		assert.NotEqual(t, types.RoleSystem, msg.Role)
	}
}

type fixedCounter struct{ perMessage int }

func (c fixedCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return c.perMessage
}

func TestGetMessagesForLLM_TokenBudget(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, WithTokenCounter(fixedCounter{perMessage: 10}))
	ctx := context.Background()

	id, err := m.CreateSession(ctx, "chat")
	require.NoError(t, err)

	for _, content := range []string{"um", "dois", "três", "quatro"} {
		_, err := m.AddMessage(ctx, id, types.RoleUser, content, nil)
		require.NoError(t, err)
	}

	view, err := m.GetMessagesForLLM(ctx, id, 0, 25)
	require.NoError(t, err)

	// Two messages of ten tokens fit in a budget of 25; the newest survive.
	require.Len(t, view.Messages, 2)
	assert.Equal(t, "três", view.Messages[0].Content)
	assert.Equal(t, "quatro", view.Messages[1].Content)
}

func TestClearHistory(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.CreateSession(ctx, "chat")
	require.NoError(t, err)
	_, err = m.AddMessage(ctx, id, types.RoleUser, "oi", nil)
	require.NoError(t, err)

	require.NoError(t, m.ClearHistory(ctx, id))

	got, err := m.GetMessages(ctx, id, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// The session itself survives.
	infos, err := m.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, id, infos[0].ID)
}

func TestRenameAndListSessions(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.CreateSession(ctx, "primeira")
	require.NoError(t, err)
	second, err := m.CreateSession(ctx, "segunda")
	require.NoError(t, err)

	// Touching the first session makes it the most recent.
	_, err = m.AddMessage(ctx, first, types.RoleUser, "oi", nil)
	require.NoError(t, err)

	require.NoError(t, m.RenameSession(ctx, second, "renomeada"))

	infos, err := m.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "renomeada", infos[0].Name)
	assert.Equal(t, 1, infos[1].MessageCount)

	err = m.RenameSession(ctx, first, "")
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

func TestDeleteSession(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.CreateSession(ctx, "chat")
	require.NoError(t, err)

	existed, err := m.DeleteSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = m.DeleteSession(ctx, id)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = m.GetMessages(ctx, id, 0)
	assert.Equal(t, types.ErrSessionNotFound, types.GetErrorCode(err))
}

func TestExportImport_RoundTrip(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.CreateSession(ctx, "original")
	require.NoError(t, err)
	_, err = m.AddMessage(ctx, id, types.RoleUser, "oi", nil)
	require.NoError(t, err)
	_, err = m.AddMessage(ctx, id, types.RoleAssistant, "olá!", nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export", "chat.json")
	require.NoError(t, m.ExportSession(ctx, id, path))

	newID, err := m.ImportSession(ctx, path)
	require.NoError(t, err)
	assert.NotEqual(t, id, newID)

	got, err := m.GetMessages(ctx, newID, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "oi", got[0].Content)

	infos, err := m.ListSessions(ctx)
	require.NoError(t, err)
	for _, info := range infos {
		if info.ID == newID {
			assert.Equal(t, id, info.ImportedFrom)
			assert.Equal(t, "original", info.Name)
		}
	}
}

func TestImportSession_BadFile(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.ImportSession(ctx, filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, types.IsNotFound(err))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, writeFile(bad, "{not json"))
	_, err = m.ImportSession(ctx, bad)
	assert.Equal(t, types.ErrMalformedDocument, types.GetErrorCode(err))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestHeuristicCounter(t *testing.T) {
	t.Parallel()

	c := HeuristicCounter{}
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("oi"))
	assert.Equal(t, 3, c.Count("12345678"))
}
