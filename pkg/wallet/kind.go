package wallet

import "strings"

// Kind is the closed set of wallet types the client knows how to render and drive.
// External connector metadata is mapped into a Kind once, by Classify.
type Kind int

const (
	KindUnknown Kind = iota
	KindInjected
	KindMetaMask
	KindWalletConnect
	KindCoinbase
	KindWatchOnly
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindInjected:      "injected",
	KindMetaMask:      "metamask",
	KindWalletConnect: "walletconnect",
	KindCoinbase:      "coinbase",
	KindWatchOnly:     "watch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Label is the human readable wallet name
func (k Kind) Label() string {
	switch k {
	case KindInjected:
		return "Browser Wallet"
	case KindMetaMask:
		return "MetaMask"
	case KindWalletConnect:
		return "WalletConnect"
	case KindCoinbase:
		return "Coinbase Wallet"
	case KindWatchOnly:
		return "Watch Address"
	default:
		return "Unknown Wallet"
	}
}

// Classify maps connector id and display name, as reported by a wallet library,
// into a Kind. Matching is case-insensitive; the id is checked before the name.
func Classify(id, name string) Kind {
	for _, s := range []string{id, name} {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		switch {
		case strings.Contains(s, "metamask"):
			return KindMetaMask
		case strings.Contains(s, "walletconnect"):
			return KindWalletConnect
		case strings.Contains(s, "coinbase"):
			return KindCoinbase
		case strings.Contains(s, "watch"), strings.Contains(s, "readonly"):
			return KindWatchOnly
		case strings.Contains(s, "injected"), strings.Contains(s, "browser"):
			return KindInjected
		}
	}
	return KindUnknown
}
