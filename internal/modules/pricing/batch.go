package pricing

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fujitaka/MultiAssetOFX/internal/domain"
	"github.com/fujitaka/MultiAssetOFX/internal/events"
	"github.com/fujitaka/MultiAssetOFX/internal/modules/securities"
)

// BatchService fans a submission of codes out to the resolver with
// bounded concurrency. The result slice is index aligned with the input,
// so output order always equals submission order.
type BatchService struct {
	resolver   *Resolver
	classifier *securities.Classifier
	events     *events.Manager
	workers    int
	log        zerolog.Logger
}

// NewBatchService creates a new batch resolution service.
func NewBatchService(resolver *Resolver, classifier *securities.Classifier, eventManager *events.Manager, workers int, log zerolog.Logger) *BatchService {
	if workers < 1 {
		workers = 1
	}
	return &BatchService{
		resolver:   resolver,
		classifier: classifier,
		events:     eventManager,
		workers:    workers,
		log:        log.With().Str("component", "batch").Logger(),
	}
}

// ResolveAll normalizes, classifies, and resolves every code in the
// submission. Each code gets its own goroutine slot; resolutions share no
// mutable state, so one slow or failing code never affects another.
func (s *BatchService) ResolveAll(codes []string, date time.Time) []domain.PriceRecord {
	started := time.Now()

	s.events.Emit(events.BatchResolveStart, "pricing", map[string]interface{}{
		"codes": len(codes),
		"date":  date.Format("2006-01-02"),
	})

	records := make([]domain.PriceRecord, len(codes))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, raw := range codes {
		i, raw := i, raw
		g.Go(func() error {
			code := securities.Normalize(raw)
			query := domain.PriceQuery{
				Code: code,
				Type: s.classifier.Classify(code),
				Date: date,
			}
			records[i] = s.resolver.Resolve(query)
			return nil
		})
	}

	// Workers never return errors; failures are already records.
	g.Wait()

	failures := 0
	for _, record := range records {
		if record.Error != "" {
			failures++
		}
	}

	elapsed := time.Since(started)
	s.log.Info().
		Int("codes", len(codes)).
		Int("failures", failures).
		Dur("elapsed", elapsed).
		Msg("Batch resolution complete")

	s.events.Emit(events.BatchResolveComplete, "pricing", map[string]interface{}{
		"codes":      len(codes),
		"failures":   failures,
		"elapsed_ms": elapsed.Milliseconds(),
	})

	return records
}
