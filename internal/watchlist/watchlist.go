// Package watchlist manages the set of symbols being refreshed.
//
// The refresh loop reads a snapshot of the list at the start of every
// cycle. Additions and removals are published on a change feed so the
// poller can fetch new symbols right away and evict dropped ones.
package watchlist

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// ChangeBufferSize is the capacity of the Change channel.
const ChangeBufferSize = 1000

// DefaultSymbols is the watchlist used when none is configured.
var DefaultSymbols = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"}

var (
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrExists        = errors.New("symbol already in watchlist")
	ErrNotFound      = errors.New("symbol not in watchlist")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.]{1,5}$`)

// Normalize trims and uppercases a symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Validate normalizes symbol and checks it against the accepted format:
// one to five of A-Z, 0-9 and '.'.
func Validate(symbol string) (string, error) {
	s := Normalize(symbol)
	if !symbolPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return s, nil
}

// ChangeType is the kind of watchlist change.
type ChangeType int

const (
	Added ChangeType = iota
	Removed
)

func (t ChangeType) String() string {
	if t == Added {
		return "added"
	}
	return "removed"
}

// Change is a single watchlist mutation.
type Change struct {
	Symbol string
	Type   ChangeType
}

// Watchlist is an ordered, deduplicated symbol set safe for concurrent use.
type Watchlist struct {
	mu      sync.RWMutex
	symbols []string
	index   map[string]struct{}
	changes chan Change
}

// New creates a watchlist holding symbols in order. Duplicates are
// dropped; an invalid symbol is an error.
func New(symbols ...string) (*Watchlist, error) {
	w := &Watchlist{
		index:   make(map[string]struct{}),
		changes: make(chan Change, ChangeBufferSize),
	}
	for _, s := range symbols {
		norm, err := Validate(s)
		if err != nil {
			return nil, err
		}
		if _, ok := w.index[norm]; ok {
			continue
		}
		w.index[norm] = struct{}{}
		w.symbols = append(w.symbols, norm)
	}
	return w, nil
}

// Add appends symbol and returns its normalized form.
func (w *Watchlist) Add(symbol string) (string, error) {
	norm, err := Validate(symbol)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	if _, ok := w.index[norm]; ok {
		w.mu.Unlock()
		return norm, ErrExists
	}
	w.index[norm] = struct{}{}
	w.symbols = append(w.symbols, norm)
	w.mu.Unlock()

	w.notifyChange(Change{Symbol: norm, Type: Added})
	return norm, nil
}

// Remove deletes symbol and returns its normalized form.
func (w *Watchlist) Remove(symbol string) (string, error) {
	norm := Normalize(symbol)

	w.mu.Lock()
	if _, ok := w.index[norm]; !ok {
		w.mu.Unlock()
		return norm, ErrNotFound
	}
	delete(w.index, norm)
	w.symbols = slices.DeleteFunc(w.symbols, func(s string) bool { return s == norm })
	w.mu.Unlock()

	w.notifyChange(Change{Symbol: norm, Type: Removed})
	return norm, nil
}

// Contains reports whether symbol is watched.
func (w *Watchlist) Contains(symbol string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.index[Normalize(symbol)]
	return ok
}

// Symbols returns a copy of the list in insertion order.
func (w *Watchlist) Symbols() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.symbols)
}

// Len returns the number of watched symbols.
func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.symbols)
}

// SubscribeChanges returns the change feed. There is a single feed; changes
// are split between concurrent readers.
func (w *Watchlist) SubscribeChanges() <-chan Change {
	return w.changes
}

// notifyChange publishes a change, dropping the oldest queued change when
// the feed is full.
func (w *Watchlist) notifyChange(change Change) {
	select {
	case w.changes <- change:
	default:
		select {
		case <-w.changes:
		default:
		}
		select {
		case w.changes <- change:
		default:
		}
	}
}
