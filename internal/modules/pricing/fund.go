package pricing

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/fujitaka/MultiAssetOFX/internal/clients/toushin"
	"github.com/fujitaka/MultiAssetOFX/internal/domain"
	"github.com/fujitaka/MultiAssetOFX/internal/modules/securities"
)

// FundSource is the slice of the fund site client the adapter needs.
type FundSource interface {
	FetchFundPage(isin string) (*toushin.FundPage, error)
	DownloadNAVHistory(isin, assocFundCode string) (*toushin.NAVHistory, error)
	CachedProfile(isin string) *toushin.FundProfile
	StaleProfile(isin string) *toushin.FundProfile
}

const (
	invalidISINText  = "invalid ISIN format (expected JP followed by 10 alphanumeric characters)"
	navFailedText    = "NAV retrieval failed"
	latestNAVWarning = "latest NAV (may not reflect the requested date)"
)

// A navStrategy tries one way of answering a fund query. A nil record with
// a nil error means it has nothing to say and the next strategy runs; an
// error is a transient fault.
type navStrategy func(s *fundSession) (*domain.PriceRecord, error)

// FundAdapter resolves Japanese investment trusts to a NAV. Strategies
// run in order: the dated CSV history first, the latest published NAV as
// a degraded fallback.
type FundAdapter struct {
	source     FundSource
	strategies []navStrategy
	log        zerolog.Logger
}

// NewFundAdapter creates a new mutual fund adapter.
func NewFundAdapter(source FundSource, log zerolog.Logger) *FundAdapter {
	return &FundAdapter{
		source:     source,
		strategies: []navStrategy{navHistoryStrategy, latestNAVStrategy},
		log:        log.With().Str("adapter", "fund").Logger(),
	}
}

// fundSession carries per-query state shared by the strategies. The
// detail page is fetched at most once per resolution attempt.
type fundSession struct {
	query   domain.PriceQuery
	source  FundSource
	profile *toushin.FundProfile
	page    *toushin.FundPage
	log     zerolog.Logger
}

func (s *fundSession) fundPage() (*toushin.FundPage, error) {
	if s.page != nil {
		return s.page, nil
	}

	page, err := s.source.FetchFundPage(s.query.Code)
	if err != nil {
		return nil, err
	}

	s.page = page
	return page, nil
}

// Fetch resolves one fund query. The NAV source is addressable only by
// ISIN, so association-code and legacy numeric fund codes terminate here
// with a format error even though they classify as funds.
func (a *FundAdapter) Fetch(q domain.PriceQuery) (domain.PriceRecord, error) {
	if !securities.IsFundISIN(q.Code) {
		return domain.NewErrorRecord(q.Code, q.Type, toushin.DefaultFundName(q.Code), invalidISINText), nil
	}

	s := &fundSession{query: q, source: a.source, log: a.log}

	if profile := a.source.CachedProfile(q.Code); profile != nil {
		a.log.Debug().Str("isin", q.Code).Msg("Fund profile cache hit")
		s.profile = profile
	} else {
		page, err := s.fundPage()
		if err != nil {
			var statusErr *toushin.StatusError
			if errors.As(err, &statusErr) {
				return domain.NewErrorRecord(q.Code, q.Type, toushin.DefaultFundName(q.Code), statusErr.Error()), nil
			}
			stale := a.source.StaleProfile(q.Code)
			if stale == nil {
				return domain.PriceRecord{}, err
			}
			a.log.Warn().Err(err).Str("isin", q.Code).Msg("Detail page failed, using stale profile")
			s.profile = stale
		} else {
			s.profile = &toushin.FundProfile{Name: page.Name, AssocFundCode: page.AssocFundCode}
		}
	}

	if s.profile.Name == "" {
		s.profile.Name = toushin.DefaultFundName(q.Code)
	}

	for _, strategy := range a.strategies {
		record, err := strategy(s)
		if err != nil {
			return domain.PriceRecord{}, err
		}
		if record != nil {
			return *record, nil
		}
	}

	return domain.NewErrorRecord(q.Code, q.Type, s.profile.Name, navFailedText), nil
}

// navHistoryStrategy answers from the dated CSV history. A date that is
// simply absent from the series is an answer (likely a non-trading day),
// not a reason to fall through to the latest NAV.
func navHistoryStrategy(s *fundSession) (*domain.PriceRecord, error) {
	if s.profile.AssocFundCode == "" {
		return nil, nil
	}

	history, err := s.source.DownloadNAVHistory(s.query.Code, s.profile.AssocFundCode)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, nil
	}

	if nav, ok := history.NAVOn(s.query.Date); ok {
		return &domain.PriceRecord{
			Code:     s.query.Code,
			Type:     s.query.Type,
			Name:     s.profile.Name,
			Price:    strconv.FormatInt(nav, 10),
			Currency: domain.CurrencyJPY,
		}, nil
	}

	text := fmt.Sprintf("no data for %s (possibly non-trading day)", s.query.Date.Format("2006/01/02"))
	record := domain.NewErrorRecord(s.query.Code, s.query.Type, s.profile.Name, text)
	return &record, nil
}

// latestNAVStrategy scrapes the most recently published NAV off the
// detail page. Success carries a warning; the value may not belong to the
// requested date.
func latestNAVStrategy(s *fundSession) (*domain.PriceRecord, error) {
	page, err := s.fundPage()
	if err != nil {
		var statusErr *toushin.StatusError
		if errors.As(err, &statusErr) {
			record := domain.NewErrorRecord(s.query.Code, s.query.Type, s.profile.Name, statusErr.Error())
			return &record, nil
		}
		return nil, err
	}

	nav, ok := page.LatestNAV()
	if !ok {
		return nil, nil
	}

	s.log.Info().Str("isin", s.query.Code).Int64("nav", nav).Msg("Using latest published NAV")
	return &domain.PriceRecord{
		Code:     s.query.Code,
		Type:     s.query.Type,
		Name:     s.profile.Name,
		Price:    strconv.FormatInt(nav, 10),
		Currency: domain.CurrencyJPY,
		Warning:  latestNAVWarning,
	}, nil
}
