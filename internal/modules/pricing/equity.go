// Package pricing resolves classified security codes to dated price
// records. Adapters answer queries per source; the Resolver wraps them
// with retries; BatchService fans whole submissions out.
//
// The contract between adapters and the Resolver: a returned record is a
// final answer and is delivered as-is, a returned error is a transient
// fault the Resolver retries. "No data for that date" is an answer.
package pricing

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fujitaka/MultiAssetOFX/internal/clients/yahoo"
	"github.com/fujitaka/MultiAssetOFX/internal/domain"
)

// QuoteSource is the slice of the quote client the equity adapter needs.
type QuoteSource interface {
	DailyClose(symbol string, date time.Time) (*yahoo.DailyQuote, error)
	QuoteName(symbol string) (*yahoo.QuoteName, error)
}

// EquityAdapter resolves listed equities to the closing price on the
// target date.
type EquityAdapter struct {
	source QuoteSource
	log    zerolog.Logger
}

// NewEquityAdapter creates a new equity adapter.
func NewEquityAdapter(source QuoteSource, log zerolog.Logger) *EquityAdapter {
	return &EquityAdapter{
		source: source,
		log:    log.With().Str("adapter", "equity").Logger(),
	}
}

// Fetch resolves one equity query. The currency tag is fixed by the
// caller per instrument type, never taken from the source.
func (a *EquityAdapter) Fetch(q domain.PriceQuery, currency domain.Currency) (domain.PriceRecord, error) {
	quote, err := a.source.DailyClose(q.Code, q.Date)
	if err != nil {
		return domain.PriceRecord{}, err
	}

	if quote == nil {
		return domain.NewErrorRecord(q.Code, q.Type, q.Code,
			"date has no data (possibly non-trading day)"), nil
	}

	return domain.PriceRecord{
		Code:     q.Code,
		Type:     q.Type,
		Name:     a.displayName(q.Code),
		Price:    fmt.Sprintf("%.2f", quote.Close),
		Currency: currency,
	}, nil
}

// displayName looks up a human-readable name for the symbol. A failed
// lookup falls back to the symbol itself and never blocks the price.
func (a *EquityAdapter) displayName(code string) string {
	name, err := a.source.QuoteName(code)
	if err != nil {
		a.log.Debug().Err(err).Str("symbol", code).Msg("Name lookup failed")
		return code
	}
	if best := name.Best(); best != "" {
		return best
	}
	return code
}
