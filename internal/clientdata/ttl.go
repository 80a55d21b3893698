package clientdata

import "time"

// TTL constants for the cached metadata types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLQuoteName covers equity display names. Company names change on
	// rebrands and mergers, so refresh weekly.
	TTLQuoteName = 7 * 24 * time.Hour

	// TTLFundProfile covers fund names and association codes. The
	// association code is a stable registry identifier.
	TTLFundProfile = 30 * 24 * time.Hour
)
