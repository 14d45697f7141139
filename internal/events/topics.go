package events

import "strconv"

const (
	TopicOrderCreated       = "portal.order.created"
	TopicOrderStatusChanged = "portal.order.status"
	TopicVoteCreated        = "portal.vote.created"
	TopicBallotCast         = "portal.vote.ballot"
)

// Partition key = entity id, so events for one order (or vote) stay ordered.
func PartitionKey(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }
