package swap

import (
	"fmt"
	"strings"
	"time"

	"dex-swap/pkg/quote"
)

// ExecutionStatus defines the status of a single execution
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"   // Execution initiated
	ExecutionCompleted ExecutionStatus = "completed" // Simulated confirmation received
	ExecutionFailed    ExecutionStatus = "failed"    // Execution failed
)

// Request is a swap the user confirmed
type Request struct {
	Amount            string  `json:"amount"`
	SourceToken       string  `json:"source_token"`
	DestToken         string  `json:"dest_token"`
	SlippageTolerance float64 `json:"slippage_tolerance"`
}

// Validate checks that a swap request has all required fields
func (r *Request) Validate() error {
	if r.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if quote.ParseAmount(r.Amount) <= 0 {
		return fmt.Errorf("amount must be a positive number")
	}
	if r.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if r.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	if strings.EqualFold(r.SourceToken, r.DestToken) {
		return fmt.Errorf("source and destination tokens must differ")
	}
	return nil
}

// Execution is one recorded swap
type Execution struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Account      string          `json:"account"`
	ChainID      int64           `json:"chain_id"`
	Request      Request         `json:"request"`
	Quote        quote.Quote     `json:"quote"`
	TxHash       string          `json:"tx_hash"`
	Status       ExecutionStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Completed    *time.Time      `json:"completed,omitempty"`
}
