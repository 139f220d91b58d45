package quote

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteRecorder struct {
	mu     sync.Mutex
	quotes []Quote
	ch     chan Quote
}

func newQuoteRecorder() *quoteRecorder {
	return &quoteRecorder{ch: make(chan Quote, 10)}
}

func (r *quoteRecorder) record(q Quote) {
	r.mu.Lock()
	r.quotes = append(r.quotes, q)
	r.mu.Unlock()
	r.ch <- q
}

func (r *quoteRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.quotes)
}

func TestDebouncerLastInputWins(t *testing.T) {
	rec := newQuoteRecorder()
	d := NewDebouncer(newTestCalculator(), 50*time.Millisecond, 0.5, rec.record)
	defer d.Stop()

	d.Submit(Request{Amount: "1", From: "ETH", To: "USDC"})
	d.Submit(Request{Amount: "10", From: "ETH", To: "USDC"})
	d.Submit(Request{Amount: "2", From: "ETH", To: "USDC"})

	select {
	case q := <-rec.ch:
		assert.Equal(t, 2.0, q.InputAmount)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestDebouncerFlush(t *testing.T) {
	rec := newQuoteRecorder()
	d := NewDebouncer(newTestCalculator(), time.Hour, 0, rec.record)
	defer d.Stop()

	_, ok := d.Flush()
	assert.False(t, ok)

	d.Submit(Request{Amount: "10", From: "ETH", To: "USDC"})
	q, ok := d.Flush()
	require.True(t, ok)
	assert.InDelta(t, 34998.25, q.OutputAmount, 1e-6)
	assert.Equal(t, 1, rec.count())

	_, ok = d.Flush()
	assert.False(t, ok)
}

func TestDebouncerStop(t *testing.T) {
	rec := newQuoteRecorder()
	d := NewDebouncer(newTestCalculator(), 20*time.Millisecond, 0, rec.record)

	d.Submit(Request{Amount: "1", From: "ETH", To: "USDC"})
	d.Stop()
	d.Submit(Request{Amount: "2", From: "ETH", To: "USDC"})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestDebouncerDefaultWindow(t *testing.T) {
	d := NewDebouncer(newTestCalculator(), 0, 0, func(Quote) {})
	assert.Equal(t, DefaultDebounce, d.window)
}
