package pricing

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fujitaka/MultiAssetOFX/internal/domain"
)

// Config controls retry behavior for a single resolution.
type Config struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// DefaultConfig returns the source-friendly defaults: three attempts,
// one second apart.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		RetryDelay:  1 * time.Second,
	}
}

// Resolver dispatches classified queries to the right adapter and retries
// transient faults.
type Resolver struct {
	equity *EquityAdapter
	fund   *FundAdapter
	cfg    Config
	log    zerolog.Logger
}

// NewResolver creates a new resolver.
func NewResolver(equity *EquityAdapter, fund *FundAdapter, cfg Config, log zerolog.Logger) *Resolver {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Resolver{
		equity: equity,
		fund:   fund,
		cfg:    cfg,
		log:    log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve answers one query. It never returns an error: every outcome,
// including exhausted retries, is a PriceRecord. Records returned by an
// adapter are final answers and are delivered untouched; only adapter
// faults are retried.
func (r *Resolver) Resolve(q domain.PriceQuery) domain.PriceRecord {
	switch q.Type {
	case domain.InstrumentInvalid:
		return domain.NewErrorRecord(q.Code, q.Type, q.Code, "invalid code format")
	case domain.InstrumentCrypto:
		// Classified so the input is acknowledged, but no price source
		// is wired for it.
		return domain.NewErrorRecord(q.Code, q.Type, q.Code, "unsupported instrument type")
	}

	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		record, err := r.dispatch(q)
		if err == nil {
			return record
		}

		lastErr = err
		r.log.Warn().Err(err).
			Str("code", q.Code).
			Str("type", string(q.Type)).
			Int("attempt", attempt).
			Int("max_attempts", r.cfg.MaxAttempts).
			Msg("Price fetch attempt failed")

		if attempt < r.cfg.MaxAttempts {
			time.Sleep(r.cfg.RetryDelay)
		}
	}

	r.log.Error().Err(lastErr).Str("code", q.Code).Msg("Price fetch exhausted all attempts")
	return domain.NewErrorRecord(q.Code, q.Type, q.Code,
		fmt.Sprintf("data retrieval failed (%d attempts)", r.cfg.MaxAttempts))
}

func (r *Resolver) dispatch(q domain.PriceQuery) (domain.PriceRecord, error) {
	switch q.Type {
	case domain.InstrumentJPStock:
		return r.equity.Fetch(q, domain.CurrencyJPY)
	case domain.InstrumentUSStock:
		return r.equity.Fetch(q, domain.CurrencyUSD)
	case domain.InstrumentJPFund:
		return r.fund.Fetch(q)
	default:
		return domain.NewErrorRecord(q.Code, q.Type, q.Code, "invalid code format"), nil
	}
}
