package history

import (
	"strconv"
	"strings"
	"time"

	"dex-swap/pkg/market"
)

// Transaction is one record of the explorer txlist. Numeric fields are kept as
// the decimal strings the explorer returns.
type Transaction struct {
	Hash        string `json:"hash"`
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	GasUsed     string `json:"gasUsed"`
	IsError     string `json:"isError"`
}

// Direction of a transaction relative to an account
type Direction string

const (
	DirectionIn    Direction = "in"
	DirectionOut   Direction = "out"
	DirectionSelf  Direction = "self"
	DirectionOther Direction = "other"
)

// Direction compares addresses case-insensitively
func (t Transaction) Direction(address string) Direction {
	toMe := strings.EqualFold(t.To, address)
	fromMe := strings.EqualFold(t.From, address)

	switch {
	case toMe && fromMe:
		return DirectionSelf
	case toMe:
		return DirectionIn
	case fromMe:
		return DirectionOut
	default:
		return DirectionOther
	}
}

// Time returns the block timestamp, or the zero time when unparsable
func (t Transaction) Time() time.Time {
	sec, err := strconv.ParseInt(t.TimeStamp, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Failed reports whether the transaction reverted
func (t Transaction) Failed() bool {
	return t.IsError == "1"
}

// FormatValue renders the native value in ether
func (t Transaction) FormatValue(places int32) string {
	return market.FormatUnits(market.ParseBaseUnits(t.Value), market.EtherDecimals, places)
}

// Entry is a transaction annotated for one account
type Entry struct {
	Transaction
	Direction  Direction `json:"direction"`
	ValueEther string    `json:"value_ether"`
}

// Annotate attaches direction and formatted value to each transaction
func Annotate(txs []Transaction, address string) []Entry {
	entries := make([]Entry, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, Entry{
			Transaction: tx,
			Direction:   tx.Direction(address),
			ValueEther:  tx.FormatValue(6),
		})
	}
	return entries
}
