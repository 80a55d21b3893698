package clientdata

import (
	"github.com/rs/zerolog"

	"github.com/fujitaka/MultiAssetOFX/internal/events"
)

// CleanupJob removes expired entries from all cache tables.
// It should be scheduled to run daily.
type CleanupJob struct {
	repo   *Repository
	events *events.Manager
	log    zerolog.Logger
}

// NewCleanupJob creates a new cache cleanup job.
func NewCleanupJob(repo *Repository, eventManager *events.Manager, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:   repo,
		events: eventManager,
		log:    log.With().Str("job", "client_data_cleanup").Logger(),
	}
}

// Run executes the cleanup job, removing all expired entries from all tables.
func (j *CleanupJob) Run() error {
	results, err := j.repo.DeleteAllExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired client data")
		j.events.EmitError("clientdata", err, nil)
		return err
	}

	var totalDeleted int64
	for table, count := range results {
		if count > 0 {
			j.log.Info().
				Str("table", table).
				Int64("deleted", count).
				Msg("Cleaned up expired cache entries")
			totalDeleted += count
		}
	}

	if totalDeleted > 0 {
		j.log.Info().
			Int64("total_deleted", totalDeleted).
			Msg("Client data cleanup completed")
	}

	j.events.Emit(events.CacheCleanupDone, "clientdata", map[string]interface{}{
		"deleted": totalDeleted,
	})

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "client_data_cleanup"
}
