package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePaths(t *testing.T) {
	t.Parallel()

	s, dir := newTestFileStore(t)
	assert.Equal(t, filepath.Join(dir, "journal.json"), s.Path(""))

	alice := s.Path("alice")
	assert.Equal(t, dir, filepath.Dir(alice))
	assert.NotEqual(t, alice, s.Path("bob"))

	// scopes are opaque; separators must not escape the dir
	sneaky := s.Path("../../etc/passwd")
	assert.Equal(t, dir, filepath.Dir(sneaky))
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s, _ := newTestFileStore(t)
	list, err := s.List(context.Background(), "alice", FilterNone)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = os.Stat(s.Path("alice"))
	assert.True(t, os.IsNotExist(err), "read must not create the file")
}

func TestFileStoreDocumentFormat(t *testing.T) {
	t.Parallel()

	s, dir := newTestFileStore(t)
	ctx := context.Background()
	a, err := s.Append(ctx, "", sampleDraft(t))
	require.NoError(t, err)
	b, err := s.Append(ctx, "", sampleDraft(t))
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path(""))
	require.NoError(t, err)

	var doc struct {
		Version int              `json:"version"`
		Entries []map[string]any `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.Version)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, b.ID, doc.Entries[0]["id"])
	assert.Equal(t, a.ID, doc.Entries[1]["id"])
	assert.Equal(t, "1.105", doc.Entries[0]["entry_price"])
	assert.Equal(t, "EUR_USD", doc.Entries[0]["instrument"])
	assert.Equal(t, "", doc.Entries[0]["result"])

	// no temp files left behind
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, f := range files {
		assert.False(t, strings.HasSuffix(f.Name(), ".tmp"), "leftover %s", f.Name())
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	s, dir := newTestFileStore(t)
	ctx := context.Background()
	rec, err := s.Append(ctx, "alice", sampleDraft(t))
	require.NoError(t, err)

	reopened, err := NewFileStore(dir, testOptions())
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "alice", rec.ID)
	require.NoError(t, err)
	assertSameTrade(t, rec, got)
}

func TestFileStoreSeesExternalChanges(t *testing.T) {
	t.Parallel()

	s, dir := newTestFileStore(t)
	other, err := NewFileStore(dir, testOptions())
	require.NoError(t, err)

	ctx := context.Background()
	rec, err := other.Append(ctx, "alice", sampleDraft(t))
	require.NoError(t, err)

	got, err := s.Get(ctx, "alice", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

// storedEntry is a journal entry as FileStore writes it, without a take
// profit.
func storedEntry(id, direction, riskAmount, result string) string {
	return fmt.Sprintf(`{"id": %q, "created_at": "2024-04-10T09:00:00Z", "instrument": "EUR_USD",
		"direction": %q, "entry_price": "1.105", "stop_loss_price": "1.1", "take_profit_price": null,
		"risk_amount": %q, "lot_size": "0.2", "expected_profit": null, "result": %q}`,
		id, direction, riskAmount, result)
}

func storedDoc(entries ...string) string {
	return `{"version": 1, "entries": [` + strings.Join(entries, ", ") + `]}`
}

func TestFileStoreReadsHandWrittenEntries(t *testing.T) {
	t.Parallel()

	s, _ := newTestFileStore(t)
	doc := storedDoc(storedEntry("b", "short", "50", "win"), storedEntry("a", "", "100", ""))
	require.NoError(t, os.WriteFile(s.Path("alice"), []byte(doc), 0o644))

	list, err := s.List(context.Background(), "alice", FilterComplete)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, Win, list[0].Result)
}

func TestFileStoreCorruptFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"garbage", "{not json"},
		{"wrong version", `{"version": 7, "entries": []}`},
		{"entry without id", `{"version": 1, "entries": [{"instrument": "EUR_USD"}]}`},
		{"bad decimal", `{"version": 1, "entries": [{"id": "x", "entry_price": "abc"}]}`},
		{"unknown result", storedDoc(storedEntry("x", "long", "100", "pending"))},
		{"unknown direction", storedDoc(storedEntry("x", "up", "100", ""))},
		{"negative risk", storedDoc(storedEntry("x", "long", "-100", ""))},
		{"huge risk", storedDoc(storedEntry("x", "long", "1e900000000", ""))},
		{"duplicate id", storedDoc(storedEntry("x", "long", "100", ""), storedEntry("x", "short", "50", "win"))},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestFileStore(t)
			ctx := context.Background()
			path := s.Path("alice")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := s.List(ctx, "alice", FilterNone)
			assert.ErrorIs(t, err, ErrStorageUnavailable)

			_, err = s.Get(ctx, "alice", "x")
			assert.ErrorIs(t, err, ErrStorageUnavailable)

			_, err = s.Append(ctx, "alice", sampleDraft(t))
			assert.ErrorIs(t, err, ErrStorageUnavailable)

			// a failed write leaves the corrupt file untouched
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))

			// other scopes are unaffected
			_, err = s.Append(ctx, "bob", sampleDraft(t))
			assert.NoError(t, err)
		})
	}
}

func TestFileStoreUnreadablePath(t *testing.T) {
	t.Parallel()

	s, _ := newTestFileStore(t)
	require.NoError(t, os.Mkdir(s.Path("alice"), 0o755))

	_, err := s.List(context.Background(), "alice", FilterNone)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestNewFileStoreErrors(t *testing.T) {
	t.Parallel()

	_, err := NewFileStore("", testOptions())
	assert.ErrorIs(t, err, ErrInvalidInput)

	// a regular file where the dir should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	_, err = NewFileStore(filepath.Join(blocker, "journal"), testOptions())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
