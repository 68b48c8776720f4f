package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jPabloBC/ingenit-flows/pkg/adapters/file"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements FlowStore
var _ ports.FlowStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		ports.RunFlowStoreContract(t, file.New(t.TempDir()))
	})
	t.Run("yaml", func(t *testing.T) {
		ports.RunFlowStoreContract(t, file.New(t.TempDir(), file.WithYAML()))
	})
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	store := file.New(t.TempDir())
	err := store.Save(context.Background(), domain.NewFlow("../escape", "x"))
	assert.ErrorIs(t, err, file.ErrInvalidID)

	_, err = store.Load(context.Background(), "a/b")
	assert.ErrorIs(t, err, file.ErrInvalidID)
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	require.NoError(t, store.Save(context.Background(), domain.NewFlow("b", "B")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-b.json-123"), []byte("x"), 0o644))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestFileStore_LoadRepairsMalformedFields(t *testing.T) {
	dir := t.TempDir()
	doc := `{"id": "legacy", "name": "Legacy", "delays": [{"id": "d1", "duration": "soon"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.json"), []byte(doc), 0o644))

	flow, err := file.New(dir).Load(context.Background(), "legacy")
	require.NoError(t, err)
	require.Len(t, flow.Delays, 1)
	assert.Equal(t, "d1", flow.Delays[0].ID)
}
