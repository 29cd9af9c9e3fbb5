package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcutter/sml/internal/domain"
)

func open(t *testing.T, dir string) *SQLiteState {
	t.Helper()
	s, err := NewSQLite(filepath.Join(dir, "sml.db"), filepath.Join(dir, "instances.json"), nil)
	require.NoError(t, err)
	return s
}

func instance(dir, uuid, name string) *domain.Instance {
	return &domain.Instance{
		UUID:        uuid,
		Name:        name,
		Type:        domain.InstanceForge,
		Path:        filepath.Join(dir, "instances", name),
		MCVersion:   "1.16.5",
		Loader:      "forge-36.2.0",
		InstalledAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestAddGetListRemove(t *testing.T) {
	dir := t.TempDir()
	s := open(t, dir)
	defer s.Close()

	inst := instance(dir, "0123456789abcdef", "All-the-Mods")
	require.NoError(t, s.Add(inst))

	got, err := s.Get(inst.UUID)
	require.NoError(t, err)
	assert.Equal(t, inst, got)

	list, err := s.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.FileExists(t, filepath.Join(dir, "instances.json"))

	require.NoError(t, s.Rename(inst.UUID, "ATM"))
	got, err = s.Get(inst.UUID)
	require.NoError(t, err)
	assert.Equal(t, "ATM", got.Name)

	require.NoError(t, s.Remove(inst.UUID))
	_, err = s.Get(inst.UUID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Rename(inst.UUID, "x"), domain.ErrNotFound)
}

func TestPendingInstallIsRecovered(t *testing.T) {
	dir := t.TempDir()
	s := open(t, dir)

	inst := instance(dir, "fedcba9876543210", "Half-Done")
	require.NoError(t, os.MkdirAll(inst.Path, 0755))
	require.NoError(t, s.BeginInstall(inst))

	_, err := s.Get(inst.UUID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, s.Close())

	s = open(t, dir)
	defer s.Close()

	_, err = os.Stat(inst.Path)
	assert.True(t, os.IsNotExist(err))

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM instances").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestMigrateFromJSON(t *testing.T) {
	dir := t.TempDir()
	s := open(t, dir)
	require.NoError(t, s.Add(instance(dir, "aaaaaaaa-1111", "One")))
	require.NoError(t, s.Add(instance(dir, "bbbbbbbb-2222", "Two")))
	require.NoError(t, s.Close())

	require.NoError(t, os.Remove(filepath.Join(dir, "sml.db")))

	s = open(t, dir)
	defer s.Close()

	list, err := s.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
