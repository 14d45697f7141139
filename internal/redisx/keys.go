package redisx

import "time"

const (
	// Order status cache: order_status:{order_id} -> {"status":"..."}
	KeyOrderStatus = "order_status:%d"

	// Vote tally cache: vote_tally:{vote_id} -> tally JSON; deleted on each cast.
	KeyVoteTally = "vote_tally:%d"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLTallyCache  = time.Minute
	TTLDedup       = 48 * time.Hour
)
