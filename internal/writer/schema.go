package writer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/rickgao/quotewatch/internal/model"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS latest_quotes (
		symbol         TEXT PRIMARY KEY,
		current        NUMERIC NOT NULL,
		change         NUMERIC NOT NULL,
		percent_change NUMERIC NOT NULL,
		high           NUMERIC NOT NULL,
		low            NUMERIC NOT NULL,
		open           NUMERIC NOT NULL,
		previous_close NUMERIC NOT NULL,
		provider_ts    BIGINT NOT NULL,
		fetched_at     TIMESTAMPTZ NOT NULL
	)
`

const upsertSQL = `
	INSERT INTO latest_quotes (symbol, current, change, percent_change, high, low, open, previous_close, provider_ts, fetched_at)
	VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9, $10)
	ON CONFLICT (symbol) DO UPDATE SET
		current = EXCLUDED.current,
		change = EXCLUDED.change,
		percent_change = EXCLUDED.percent_change,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		open = EXCLUDED.open,
		previous_close = EXCLUDED.previous_close,
		provider_ts = EXCLUDED.provider_ts,
		fetched_at = EXCLUDED.fetched_at
	WHERE latest_quotes.fetched_at <= EXCLUDED.fetched_at
`

const deleteSQL = `DELETE FROM latest_quotes WHERE symbol = $1`

const selectLatestSQL = `
	SELECT symbol, current::text, change::text, percent_change::text, high::text, low::text,
		open::text, previous_close::text, provider_ts, fetched_at
	FROM latest_quotes
	ORDER BY symbol
`

// EnsureSchema creates the latest_quotes table if it does not exist.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create latest_quotes: %w", err)
	}
	return nil
}

// LoadLatest reads every stored quote, ordered by symbol.
func LoadLatest(ctx context.Context, db DB) ([]model.Quote, error) {
	rows, err := db.Query(ctx, selectLatestSQL)
	if err != nil {
		return nil, fmt.Errorf("query latest_quotes: %w", err)
	}

	quotes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Quote, error) {
		var r quoteRow
		if err := row.Scan(
			&r.Symbol, &r.Current, &r.Change, &r.PercentChange, &r.High, &r.Low,
			&r.Open, &r.PreviousClose, &r.ProviderTs, &r.FetchedAt,
		); err != nil {
			return model.Quote{}, err
		}
		return r.toQuote()
	})
	if err != nil {
		return nil, fmt.Errorf("scan latest_quotes: %w", err)
	}
	return quotes, nil
}

func rowFromQuote(q model.Quote) quoteRow {
	return quoteRow{
		Symbol:        q.Symbol,
		Current:       q.Current.String(),
		Change:        q.Change.String(),
		PercentChange: q.PercentChange.String(),
		High:          q.High.String(),
		Low:           q.Low.String(),
		Open:          q.Open.String(),
		PreviousClose: q.PreviousClose.String(),
		ProviderTs:    q.Timestamp,
		FetchedAt:     q.FetchedAt,
	}
}

func (r quoteRow) toQuote() (model.Quote, error) {
	q := model.Quote{
		Symbol:    r.Symbol,
		Timestamp: r.ProviderTs,
		FetchedAt: r.FetchedAt,
	}

	fields := []struct {
		name string
		src  string
		dst  *decimal.Decimal
	}{
		{"current", r.Current, &q.Current},
		{"change", r.Change, &q.Change},
		{"percent_change", r.PercentChange, &q.PercentChange},
		{"high", r.High, &q.High},
		{"low", r.Low, &q.Low},
		{"open", r.Open, &q.Open},
		{"previous_close", r.PreviousClose, &q.PreviousClose},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return model.Quote{}, fmt.Errorf("%s %s: %w", r.Symbol, f.name, err)
		}
		*f.dst = d
	}
	return q, nil
}
