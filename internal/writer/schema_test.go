package writer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}

	require.NoError(t, EnsureSchema(context.Background(), db))
	require.Len(t, db.execs, 1)
	require.Contains(t, db.execs[0], "CREATE TABLE IF NOT EXISTS latest_quotes")
}

func TestLoadLatestQueryError(t *testing.T) {
	_, err := LoadLatest(context.Background(), &fakeDB{})
	require.ErrorContains(t, err, "query latest_quotes")
}

func TestQuoteRowRoundTripsDecimals(t *testing.T) {
	q := testQuote("BRK.B", "412.3456")

	got, err := rowFromQuote(q).toQuote()

	require.NoError(t, err)
	require.True(t, got.Equal(q), "got %+v, want %+v", got, q)
}

func TestQuoteRowRejectsBadNumeric(t *testing.T) {
	r := rowFromQuote(testQuote("AAPL", "150"))
	r.High = "NaN"

	_, err := r.toQuote()

	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "AAPL high"), err.Error())
}
