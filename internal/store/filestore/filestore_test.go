package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store/storetest"
)

// TestConformance runs the store conformance tests against a file in a temporary directory.
func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(filepath.Join(t.TempDir(), "contacts.json"))
		require.NoError(t, err)
		return s
	})
}

// TestPersistence verifies that a second store on the same file sees the contacts of the first.
func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")
	first, err := Open(path)
	require.NoError(t, err)
	created, err := first.Insert(context.Background(), model.Fields{
		Name:  "Erika Mustermann",
		Email: "erika@example.com",
		Phone: "+49 0815 4711",
	}, "alice")
	require.NoError(t, err)

	second, err := Open(path)
	require.NoError(t, err)
	found, err := second.FindOne(context.Background(), created.Id, "alice")
	require.NoError(t, err)
	assert.Equal(t, created, found)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, created.Id, raw[0]["id"])
	assert.Equal(t, "Erika Mustermann", raw[0]["name"])
}

// TestOpenEmptyFile verifies that an empty file is an empty store.
func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	s, err := Open(path)
	require.NoError(t, err)
	contacts, err := s.List(context.Background(), model.Filter{}, model.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

// TestOpenCorruptFile verifies that a file that is not JSON is refused.
func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")
	require.NoError(t, os.WriteFile(path, []byte("not JSON"), 0o600))
	_, err := Open(path)
	assert.Error(t, err)
}

// TestNoTemporaryFilesLeft verifies that writes do not leave temporary files behind.
func TestNoTemporaryFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "contacts.json"))
	require.NoError(t, err)
	created, err := s.Insert(context.Background(), model.Fields{Name: "A", Email: "a@b.c", Phone: "1"}, "")
	require.NoError(t, err)
	require.NoError(t, s.Delete(context.Background(), created.Id, ""))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "contacts.json", entries[0].Name())
}
