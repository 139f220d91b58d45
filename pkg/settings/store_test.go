package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "settings.json"))

	assert.Equal(t, DefaultPreferences(), s.Preferences())
	assert.Equal(t, "ETH", s.Session().FromToken)
	assert.Equal(t, "USDC", s.Session().ToToken)
}

func TestPreferencesPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	s := NewStore(path)

	require.NoError(t, s.SetTheme("Dark"))
	require.NoError(t, s.SetLanguage("ZH"))
	require.NoError(t, s.SetCurrency("eur"))

	reloaded := NewStore(path)
	assert.Equal(t, Preferences{Theme: ThemeDark, Language: "zh", Currency: "EUR"}, reloaded.Preferences())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var root map[string]persisted
	require.NoError(t, json.Unmarshal(data, &root))
	assert.Equal(t, SchemaVersion, root[StorageKey].Version)
}

func TestSettersRejectInvalidValues(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "settings.json"))

	assert.ErrorIs(t, s.SetTheme("neon"), ErrInvalidValue)
	assert.ErrorIs(t, s.SetLanguage("klingon"), ErrInvalidValue)
	assert.ErrorIs(t, s.SetCurrency("DOGE"), ErrInvalidValue)
	assert.ErrorIs(t, s.UpdatePreferences(Preferences{Theme: "dark", Language: "en", Currency: "XXX"}), ErrInvalidValue)
	assert.Equal(t, DefaultPreferences(), s.Preferences())
}

func TestMigratesLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	legacy := `{"dex-swap-settings":{"themeMode":"light","lang":"ja","currency":"bogus"}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0600))

	s := NewStore(path)
	assert.Equal(t, Preferences{Theme: ThemeLight, Language: "ja", Currency: "USD"}, s.Preferences())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var root map[string]persisted
	require.NoError(t, json.Unmarshal(data, &root))
	assert.Equal(t, 1, root[StorageKey].Version)
	assert.Equal(t, ThemeLight, root[StorageKey].Preferences.Theme)
}

func TestCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s := NewStore(path)
	assert.Equal(t, DefaultPreferences(), s.Preferences())
}

func TestUnknownVersionFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dex-swap-settings":{"version":9}}`), 0600))

	s := NewStore(path)
	assert.Equal(t, DefaultPreferences(), s.Preferences())
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := NewStore(path)
	require.NoError(t, s.SetTheme("dark"))
	require.NoError(t, s.Reset())

	assert.Equal(t, DefaultPreferences(), NewStore(path).Preferences())
}

func TestSessionIsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := NewStore(path)

	s.OpenModal(ModalWallet)
	s.SelectTokens("wbtc", "")
	require.NoError(t, s.SetTheme("dark"))

	assert.True(t, s.IsModalOpen(ModalWallet))
	assert.Equal(t, "WBTC", s.Session().FromToken)
	assert.Equal(t, "USDC", s.Session().ToToken)

	reloaded := NewStore(path)
	assert.False(t, reloaded.IsModalOpen(ModalWallet))
	assert.Equal(t, "ETH", reloaded.Session().FromToken)
}

func TestSessionModalsAndSwap(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "settings.json"))

	s.OpenModal(ModalTokenSelector)
	snapshot := s.Session()
	snapshot.OpenModals[ModalSettings] = true
	assert.False(t, s.IsModalOpen(ModalSettings), "session copies are detached")

	s.CloseModal(ModalTokenSelector)
	assert.False(t, s.IsModalOpen(ModalTokenSelector))

	s.SwapTokens()
	assert.Equal(t, "USDC", s.Session().FromToken)
	assert.Equal(t, "ETH", s.Session().ToToken)
}
