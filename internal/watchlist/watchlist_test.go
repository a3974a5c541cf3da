package watchlist

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"AAPL", "AAPL", false},
		{"  aapl ", "AAPL", false},
		{"brk.b", "BRK.B", false},
		{"X", "X", false},
		{"12345", "12345", false},
		{"", "", true},
		{"   ", "", true},
		{"TOOLONG", "", true},
		{"AA-PL", "", true},
		{"AA PL", "", true},
		{"$AAP", "", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, err := Validate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSymbol) {
				t.Errorf("error = %v, want ErrInvalidSymbol", err)
			}
			if got != tt.want {
				t.Errorf("Validate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	w, err := New("msft", "AAPL", "MSFT", " tsla")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	want := []string{"MSFT", "AAPL", "TSLA"}
	if got := w.Symbols(); !slices.Equal(got, want) {
		t.Errorf("Symbols() = %v, want %v", got, want)
	}

	if _, err := New("AAPL", "not valid"); !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("New with invalid symbol: err = %v, want ErrInvalidSymbol", err)
	}
}

func TestWatchlist_AddRemove(t *testing.T) {
	w, _ := New(DefaultSymbols...)
	changes := w.SubscribeChanges()

	sym, err := w.Add(" nvda ")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if sym != "NVDA" {
		t.Errorf("Add returned %q, want %q", sym, "NVDA")
	}
	if !w.Contains("nvda") {
		t.Error("Contains(nvda) = false after Add")
	}

	if _, err := w.Add("NVDA"); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate Add: err = %v, want ErrExists", err)
	}
	if _, err := w.Add("bad symbol"); !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("invalid Add: err = %v, want ErrInvalidSymbol", err)
	}

	if _, err := w.Remove("msft"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := w.Remove("MSFT"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove: err = %v, want ErrNotFound", err)
	}

	want := []string{"AAPL", "GOOGL", "AMZN", "TSLA", "NVDA"}
	if got := w.Symbols(); !slices.Equal(got, want) {
		t.Errorf("Symbols() = %v, want %v", got, want)
	}

	gotChanges := []Change{<-changes, <-changes}
	wantChanges := []Change{{"NVDA", Added}, {"MSFT", Removed}}
	if !slices.Equal(gotChanges, wantChanges) {
		t.Errorf("changes = %v, want %v", gotChanges, wantChanges)
	}
	select {
	case c := <-changes:
		t.Errorf("unexpected change %v", c)
	default:
	}
}

func TestWatchlist_SymbolsIsCopy(t *testing.T) {
	w, _ := New("AAPL", "MSFT")
	snap := w.Symbols()
	snap[0] = "XXXX"

	if w.Symbols()[0] != "AAPL" {
		t.Error("mutating Symbols() result changed the watchlist")
	}
}

func TestWatchlist_ChangeFeedDropsOldest(t *testing.T) {
	w, _ := New()
	for i := 0; i < ChangeBufferSize+5; i++ {
		w.notifyChange(Change{Symbol: fmt.Sprintf("S%d", i), Type: Added})
	}

	first := <-w.SubscribeChanges()
	if first.Symbol != "S5" {
		t.Errorf("oldest retained change = %s, want S5", first.Symbol)
	}
}
