package wallet

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrUserRejected is returned by connectors when the user declined the request
	ErrUserRejected = errors.New("user rejected the request")
	// ErrProviderUnavailable means the connector has no provider to talk to
	ErrProviderUnavailable = errors.New("wallet provider not available")
	// ErrUnknownConnector is returned for a connector id that was never registered
	ErrUnknownConnector = errors.New("unknown connector")
	// ErrUnsupportedChain means the wallet is on a chain the client does not support
	ErrUnsupportedChain = errors.New("unsupported chain")
	// ErrNotConnected is returned by operations that need a connected account
	ErrNotConnected = errors.New("wallet not connected")
)

// userRejectedCode is the EIP-1193 provider error code for a declined request
const userRejectedCode = 4001

// ErrorKind distinguishes failures the UI renders differently
type ErrorKind string

const (
	ErrorUserRejected     ErrorKind = "user_rejected"
	ErrorUnsupportedChain ErrorKind = "unsupported_chain"
	ErrorGeneric          ErrorKind = "generic"
)

// ConnectError is the error carried by a snapshot
type ConnectError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ConnectError) Error() string {
	return e.Message
}

const (
	rejectedMessage = "Connection request rejected in wallet"
	genericMessage  = "Failed to connect wallet"
)

// IsUserRejected reports whether err means the user declined in their wallet.
// Providers signal this with code 4001 or a "user rejected"/"user denied" message.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}

// classifyError turns a connector failure into the snapshot error
func classifyError(err error) *ConnectError {
	switch {
	case IsUserRejected(err):
		return &ConnectError{Kind: ErrorUserRejected, Message: rejectedMessage}
	case errors.Is(err, ErrUnsupportedChain):
		return &ConnectError{Kind: ErrorUnsupportedChain, Message: err.Error()}
	default:
		return &ConnectError{Kind: ErrorGeneric, Message: genericMessage + ": " + err.Error()}
	}
}
