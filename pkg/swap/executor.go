// Package swap runs the swap stub: a confirmed request is quoted against the mock
// market, held for a simulated confirmation delay and recorded in the activity log.
// Nothing is signed or broadcast.
package swap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"dex-swap/pkg/logging"
	"dex-swap/pkg/quote"
	"dex-swap/pkg/wallet"
)

var log = logging.New("swap")

// DefaultConfirmDelay is how long a simulated swap waits before it is confirmed
const DefaultConfirmDelay = 1500 * time.Millisecond

var (
	// ErrNotConnected is returned when no wallet account is available
	ErrNotConnected = errors.New("wallet not connected")
	// ErrZeroQuote is returned when the amount does not produce a quote
	ErrZeroQuote = errors.New("amount does not produce a quote")
)

// WalletState is the part of the wallet adapter the executor reads
type WalletState interface {
	Snapshot() wallet.Snapshot
}

// Executor performs stubbed swaps
type Executor struct {
	wallet  WalletState
	calc    *quote.Calculator
	storage *Storage
	delay   time.Duration
	now     func() time.Time
}

// NewExecutor creates a new executor instance
func NewExecutor(w WalletState, calc *quote.Calculator, storage *Storage, delay time.Duration) *Executor {
	if delay < 0 {
		delay = 0
	}
	return &Executor{
		wallet:  w,
		calc:    calc,
		storage: storage,
		delay:   delay,
		now:     time.Now,
	}
}

// Preview returns the quote a request would execute at without recording anything
func (e *Executor) Preview(req Request) (quote.Quote, error) {
	if err := req.Validate(); err != nil {
		return quote.Quote{}, err
	}
	q := e.calc.Compute(req.Amount, req.SourceToken, req.DestToken, req.SlippageTolerance)
	if q.IsZero() {
		return quote.Quote{}, ErrZeroQuote
	}
	return q, nil
}

// Execute quotes req for the connected account, waits for the simulated
// confirmation and records the result. A cancelled context records a failed
// execution and returns the context error.
func (e *Executor) Execute(ctx context.Context, req Request) (*Execution, error) {
	snap := e.wallet.Snapshot()
	if !snap.IsConnected() {
		return nil, ErrNotConnected
	}

	q, err := e.Preview(req)
	if err != nil {
		return nil, err
	}

	started := e.now().UTC()
	exec := &Execution{
		ID:        uuid.New().String(),
		Timestamp: started,
		Account:   snap.Address,
		ChainID:   snap.ChainID,
		Request:   req,
		Quote:     q,
		TxHash:    PseudoTxHash(snap.Address, req, started),
		Status:    ExecutionPending,
	}

	if err := e.storage.Create(exec); err != nil {
		return nil, fmt.Errorf("failed to record execution: %w", err)
	}

	log.Debug().
		Str("id", exec.ID).
		Str("pair", req.SourceToken+"/"+req.DestToken).
		Str("amount", req.Amount).
		Msg("Swap submitted")

	timer := time.NewTimer(e.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		exec.Status = ExecutionFailed
		exec.ErrorMessage = ctx.Err().Error()
		if err := e.storage.Update(exec); err != nil {
			log.Warn().Err(err).Str("id", exec.ID).Msg("Failed to record cancelled swap")
		}
		return exec, ctx.Err()
	case <-timer.C:
	}

	done := e.now().UTC()
	exec.Status = ExecutionCompleted
	exec.Completed = &done
	if err := e.storage.Update(exec); err != nil {
		return nil, fmt.Errorf("failed to update execution: %w", err)
	}

	log.Info().Str("id", exec.ID).Str("tx", exec.TxHash).Msg("Swap confirmed")
	return exec, nil
}

// PseudoTxHash derives a stable 32-byte hash from the swap parameters and time
func PseudoTxHash(account string, req Request, at time.Time) string {
	payload := strings.Join([]string{
		strings.ToLower(account),
		req.Amount,
		strings.ToUpper(req.SourceToken),
		strings.ToUpper(req.DestToken),
		fmt.Sprintf("%d", at.UnixNano()),
	}, "|")
	return crypto.Keccak256Hash([]byte(payload)).Hex()
}
