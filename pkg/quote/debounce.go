package quote

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet window after the last input before a quote is computed
const DefaultDebounce = 400 * time.Millisecond

// Request is one state of the swap form
type Request struct {
	Amount string
	From   string
	To     string
}

// Debouncer recomputes a quote once input has been quiet for the window. Only the
// last submitted request is quoted; earlier ones are dropped.
type Debouncer struct {
	calc      *Calculator
	window    time.Duration
	tolerance float64
	onQuote   func(Quote)

	mu      sync.Mutex
	timer   *time.Timer
	pending *Request
	seq     uint64
	stopped bool
}

// NewDebouncer creates a debouncer delivering quotes to onQuote. onQuote runs on
// the timer goroutine.
func NewDebouncer(calc *Calculator, window time.Duration, tolerancePercent float64, onQuote func(Quote)) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{
		calc:      calc,
		window:    window,
		tolerance: tolerancePercent,
		onQuote:   onQuote,
	}
}

// Submit records req as the latest input and restarts the quiet window
func (d *Debouncer) Submit(req Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending = &req
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() { d.fire(seq) })
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	req := *d.pending
	d.pending = nil
	d.mu.Unlock()

	d.onQuote(d.calc.Compute(req.Amount, req.From, req.To, d.tolerance))
}

// Flush computes the pending request immediately. It returns false when nothing
// is pending.
func (d *Debouncer) Flush() (Quote, bool) {
	d.mu.Lock()
	if d.pending == nil || d.stopped {
		d.mu.Unlock()
		return Quote{}, false
	}
	req := *d.pending
	d.pending = nil
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	q := d.calc.Compute(req.Amount, req.From, req.To, d.tolerance)
	d.onQuote(q)
	return q, true
}

// Stop cancels any pending computation. Submit after Stop is ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
	}
}
