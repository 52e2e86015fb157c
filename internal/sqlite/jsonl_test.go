package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/markable/pkg/types"
)

func TestWriteReadMarks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marks.jsonl")

	require.NoError(t, writeMarks(path, nil))
	marks, skipped, err := readMarks(path)
	require.NoError(t, err)
	assert.Empty(t, marks)
	assert.Zero(t, skipped)

	want := []*types.Mark{
		{MarkID: "m1", Marker: user1, Markable: food1, Label: "favorite"},
		{MarkID: "m2", Marker: user2, Markable: food2, Label: "hated"},
	}
	require.NoError(t, writeMarks(path, want))

	// Blank lines are ignored and undecodable lines are counted.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\n   \nnot json\n[1,2]\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	marks, skipped, err = readMarks(path)
	require.NoError(t, err)
	require.Len(t, marks, 2)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, "m1", marks[0].MarkID)
	assert.Equal(t, food2, marks[1].Markable)
	assert.Equal(t, "hated", marks[1].Label)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp files are cleaned up")
	}
}

func TestWriteMarks_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "marks.jsonl")
	assert.Error(t, writeMarks(path, nil))
}

func TestBackend_ExportImportJSONL(t *testing.T) {
	ctx := context.Background()
	src := newTestBackend(t, true)

	for _, m := range []*types.Mark{
		{Marker: user1, Markable: food1, Label: "favorite"},
		{Marker: user2, Markable: food2, Label: "hated"},
	} {
		_, err := src.Insert(ctx, m)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "export.jsonl")
	n, err := src.ExportJSONL(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Append a malformed line and an invalid mark.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{broken\n{\"marker\":{\"type\":\"user\"},\"markable\":{\"type\":\"food\",\"id\":\"9\"},\"mark\":\"favorite\"}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	dst := newTestBackend(t, true)
	result, err := dst.ImportJSONL(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 2, Skipped: 2}, result)

	want, err := src.All(ctx)
	require.NoError(t, err)
	got, err := dst.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range want {
		assert.Equal(t, want[i].MarkID, got[i].MarkID)
		assert.Equal(t, want[i].Marker, got[i].Marker)
		assert.Equal(t, want[i].Markable, got[i].Markable)
		assert.Equal(t, want[i].Label, got[i].Label)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
	}

	// Re-importing skips every existing mark.
	result, err = dst.ImportJSONL(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 0, Skipped: 4}, result)
}

func TestBackend_ImportMissingFile(t *testing.T) {
	b := newTestBackend(t, false)
	_, err := b.ImportJSONL(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
