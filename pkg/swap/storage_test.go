package swap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "activity.json"))
	require.NoError(t, err)
	return s
}

func TestStorageCreateAndReload(t *testing.T) {
	s := newTestStorage(t)

	exec := &Execution{ID: "a", Timestamp: time.Now().UTC(), Account: "0xabc", Status: ExecutionPending}
	require.NoError(t, s.Create(exec))
	assert.Error(t, s.Create(exec), "duplicate ids are rejected")

	reloaded, err := NewStorage(s.GetFilePath())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Count())

	got, err := reloaded.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", got.Account)
}

func TestStorageGetReturnsCopy(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Create(&Execution{ID: "a", Status: ExecutionPending}))

	got, err := s.Get("a")
	require.NoError(t, err)
	got.Status = ExecutionFailed

	again, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, ExecutionPending, again.Status)
}

func TestStorageUpdate(t *testing.T) {
	s := newTestStorage(t)
	assert.Error(t, s.Update(&Execution{ID: "missing"}))

	require.NoError(t, s.Create(&Execution{ID: "a", Status: ExecutionPending}))
	require.NoError(t, s.Update(&Execution{ID: "a", Status: ExecutionCompleted}))

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, ExecutionCompleted, got.Status)
}

func TestStorageListNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(&Execution{ID: "old", Timestamp: base, Account: "0x1"}))
	require.NoError(t, s.Create(&Execution{ID: "new", Timestamp: base.Add(time.Hour), Account: "0x2"}))
	require.NoError(t, s.Create(&Execution{ID: "mid", Timestamp: base.Add(time.Minute), Account: "0x1"}))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{list[0].ID, list[1].ID, list[2].ID})

	mine := s.ListByAccount("0x1")
	require.Len(t, mine, 2)
	assert.Equal(t, "mid", mine[0].ID)
}

func TestStorageListByAccountIgnoresCase(t *testing.T) {
	s := newTestStorage(t)
	checksummed := "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"

	require.NoError(t, s.Create(&Execution{ID: "a", Timestamp: time.Now(), Account: checksummed}))
	require.NoError(t, s.Create(&Execution{ID: "b", Timestamp: time.Now(), Account: "0x52908400098527886E0F7030069857D2E4169EE7"}))

	for _, query := range []string{checksummed, strings.ToLower(checksummed), " 0X71C7656EC7AB88B098DEFB751B7401B5F6D8976F "} {
		got := s.ListByAccount(query)
		require.Len(t, got, 1, query)
		assert.Equal(t, "a", got[0].ID)
	}
	assert.Empty(t, s.ListByAccount("0x0000000000000000000000000000000000000001"))
}

func TestNewStorageRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewStorage(path)
	assert.Error(t, err)
}

func TestNewStorageMissingFile(t *testing.T) {
	s := newTestStorage(t)
	assert.Equal(t, 0, s.Count())
	_, err := os.Stat(s.GetFilePath())
	assert.True(t, os.IsNotExist(err), "nothing is written until the first execution")
}
