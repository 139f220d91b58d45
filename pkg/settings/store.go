// Package settings holds the cross-command UI state: persisted preferences and
// an in-memory session.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dex-swap/pkg/logging"
)

var log = logging.New("settings")

const (
	// StorageKey namespaces the persisted blob
	StorageKey = "dex-swap-settings"
	// SchemaVersion is the current on-disk layout
	SchemaVersion = 1
)

// persisted is the versioned on-disk layout
type persisted struct {
	Version     int         `json:"version"`
	Preferences Preferences `json:"preferences"`
}

// legacyV0 is the unversioned layout written by early clients
type legacyV0 struct {
	ThemeMode string `json:"themeMode"`
	Lang      string `json:"lang"`
	Currency  string `json:"currency"`
}

// Store owns both UI state slices. Each setter replaces only its own field.
type Store struct {
	filePath string
	saveMu   sync.Mutex

	mu      sync.RWMutex
	prefs   Preferences
	session Session
}

// NewStore loads preferences from filePath. A missing or unreadable file yields
// defaults; a legacy file is migrated and rewritten.
func NewStore(filePath string) *Store {
	s := &Store{
		filePath: filePath,
		prefs:    DefaultPreferences(),
		session:  newSession(),
	}

	migrated, err := s.load()
	switch {
	case err == nil && migrated:
		if err := s.save(); err != nil {
			log.Warn().Err(err).Str("path", filePath).Msg("Failed to rewrite migrated settings")
		}
	case err != nil && !errors.Is(err, os.ErrNotExist):
		log.Warn().Err(err).Str("path", filePath).Msg("Settings unreadable, using defaults")
	}
	return s
}

func newSession() Session {
	return Session{OpenModals: make(map[Modal]bool), FromToken: "ETH", ToToken: "USDC"}
}

// load reads preferences, reporting whether a migration happened
func (s *Store) load() (bool, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return false, err
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return false, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	raw, ok := root[StorageKey]
	if !ok {
		return false, fmt.Errorf("settings file has no %q entry", StorageKey)
	}

	prefs, migrated, err := decode(raw)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()
	return migrated, nil
}

// decode reads any known schema version into current Preferences
func decode(raw json.RawMessage) (Preferences, bool, error) {
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Preferences{}, false, fmt.Errorf("failed to read settings version: %w", err)
	}

	switch head.Version {
	case 0:
		var old legacyV0
		if err := json.Unmarshal(raw, &old); err != nil {
			return Preferences{}, false, fmt.Errorf("failed to unmarshal legacy settings: %w", err)
		}
		return migrateV0(old), true, nil
	case SchemaVersion:
		var cur persisted
		if err := json.Unmarshal(raw, &cur); err != nil {
			return Preferences{}, false, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
		prefs, err := cur.Preferences.Validate()
		if err != nil {
			return Preferences{}, false, err
		}
		return prefs, false, nil
	default:
		return Preferences{}, false, fmt.Errorf("unsupported settings version %d", head.Version)
	}
}

// migrateV0 keeps every legacy field that is still valid
func migrateV0(old legacyV0) Preferences {
	prefs := DefaultPreferences()
	if theme, err := ParseTheme(old.ThemeMode); err == nil {
		prefs.Theme = theme
	}
	if lang, err := ParseLanguage(old.Lang); err == nil {
		prefs.Language = lang
	}
	if currency, err := ParseCurrency(old.Currency); err == nil {
		prefs.Currency = currency
	}
	return prefs
}

// save writes preferences to the storage file
func (s *Store) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	blob := persisted{Version: SchemaVersion, Preferences: s.prefs}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(map[string]persisted{StorageKey: blob}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Preferences returns the current preferences
func (s *Store) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// UpdatePreferences validates and replaces all preferences
func (s *Store) UpdatePreferences(p Preferences) error {
	valid, err := p.Validate()
	if err != nil {
		return err
	}
	return s.setPrefs(func(cur *Preferences) { *cur = valid })
}

// SetTheme validates and persists the theme
func (s *Store) SetTheme(value string) error {
	theme, err := ParseTheme(value)
	if err != nil {
		return err
	}
	return s.setPrefs(func(p *Preferences) { p.Theme = theme })
}

// SetLanguage validates and persists the language
func (s *Store) SetLanguage(value string) error {
	lang, err := ParseLanguage(value)
	if err != nil {
		return err
	}
	return s.setPrefs(func(p *Preferences) { p.Language = lang })
}

// SetCurrency validates and persists the display currency
func (s *Store) SetCurrency(value string) error {
	currency, err := ParseCurrency(value)
	if err != nil {
		return err
	}
	return s.setPrefs(func(p *Preferences) { p.Currency = currency })
}

// Reset restores and persists default preferences
func (s *Store) Reset() error {
	return s.setPrefs(func(p *Preferences) { *p = DefaultPreferences() })
}

func (s *Store) setPrefs(update func(*Preferences)) error {
	s.mu.Lock()
	update(&s.prefs)
	s.mu.Unlock()
	return s.save()
}

// FilePath returns the storage file location
func (s *Store) FilePath() string {
	return s.filePath
}

// Session returns a copy of the session state
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.session
	out.OpenModals = make(map[Modal]bool, len(s.session.OpenModals))
	for m, open := range s.session.OpenModals {
		out.OpenModals[m] = open
	}
	return out
}

// OpenModal marks a dialog as open
func (s *Store) OpenModal(m Modal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.OpenModals[m] = true
}

// CloseModal marks a dialog as closed
func (s *Store) CloseModal(m Modal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.session.OpenModals, m)
}

// IsModalOpen reports whether a dialog is open
func (s *Store) IsModalOpen(m Modal) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.OpenModals[m]
}

// SelectTokens sets the swap pair. Empty values leave that side unchanged.
func (s *Store) SelectTokens(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from = strings.ToUpper(strings.TrimSpace(from)); from != "" {
		s.session.FromToken = from
	}
	if to = strings.ToUpper(strings.TrimSpace(to)); to != "" {
		s.session.ToToken = to
	}
}

// SwapTokens flips the pair direction
func (s *Store) SwapTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.FromToken, s.session.ToToken = s.session.ToToken, s.session.FromToken
}
