package settings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidValue is returned when a preference is outside its allowed set
var ErrInvalidValue = errors.New("invalid setting value")

// Theme is the color scheme preference
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Languages lists the supported UI languages
var Languages = []string{"en", "zh", "es", "fr", "ja", "ko"}

// Currencies lists the supported fiat display currencies
var Currencies = []string{"USD", "EUR", "GBP", "JPY", "CNY"}

// Preferences is the persisted slice of UI state
type Preferences struct {
	Theme    Theme  `json:"theme"`
	Language string `json:"language"`
	Currency string `json:"currency"`
}

// DefaultPreferences returns the preferences used before anything is saved
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeSystem, Language: "en", Currency: "USD"}
}

// ParseTheme validates a theme name
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	}
	return "", fmt.Errorf("%w: theme %q (want light, dark or system)", ErrInvalidValue, s)
}

// ParseLanguage validates a language code
func ParseLanguage(s string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(s))
	for _, l := range Languages {
		if l == code {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: language %q (want one of %s)", ErrInvalidValue, s, strings.Join(Languages, ", "))
}

// ParseCurrency validates a currency code
func ParseCurrency(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range Currencies {
		if c == code {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: currency %q (want one of %s)", ErrInvalidValue, s, strings.Join(Currencies, ", "))
}

// Validate normalizes and checks every field
func (p Preferences) Validate() (Preferences, error) {
	theme, err := ParseTheme(string(p.Theme))
	if err != nil {
		return p, err
	}
	lang, err := ParseLanguage(p.Language)
	if err != nil {
		return p, err
	}
	currency, err := ParseCurrency(p.Currency)
	if err != nil {
		return p, err
	}
	return Preferences{Theme: theme, Language: lang, Currency: currency}, nil
}

// Modal identifies a dialog of the swap UI
type Modal string

const (
	ModalTokenSelector Modal = "token_selector"
	ModalWallet        Modal = "wallet"
	ModalSettings      Modal = "settings"
	ModalConfirmSwap   Modal = "confirm_swap"
	ModalHistory       Modal = "history"
)

// Session is the in-memory slice of UI state. It is never persisted.
type Session struct {
	OpenModals map[Modal]bool `json:"open_modals"`
	FromToken  string         `json:"from_token"`
	ToToken    string         `json:"to_token"`
}
