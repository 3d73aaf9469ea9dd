package broker

// NATS subjects carrying event deltas from the sync pipeline and the
// request-handling paths to the WebSocket fan-out layer.
const (
	// EventsWildcard matches every event delta subject.
	EventsWildcard = "event.>"

	EventCreatedSubject          = "event.created"
	EventScoreUpdatedSubject     = "event.score_updated"
	EventStatusUpdatedSubject    = "event.status_updated"
	EventHistoryAddedSubject     = "event.history_added"
	EventFollowersChangedSubject = "event.followers_changed"
)
