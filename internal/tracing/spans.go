package tracing

// Span attribute keys for search lifecycle tracing.
const (
	AttrSearchRequest  = "search.request"
	AttrSearchToken    = "search.token"
	AttrSearchCountry  = "search.country_id"
	AttrSearchCity     = "search.city_id"
	AttrSearchHotel    = "search.hotel_id"
	AttrSearchOutcome  = "search.outcome"
	AttrSearchResults  = "search.results"
	AttrPollAttempt    = "poll.attempt"
	AttrSupersededBy   = "search.superseded_by"
	AttrBackendLatency = "backend.latency_ms"

	AttrErrorMessage = "error.message"
)

// Span names.
const (
	SpanSearch        = "search.lifecycle"
	SpanPrefixAPI     = "search.api."
	SpanPrefixBackend = "backend."
	SpanConfigApply   = "config.apply"
)

// Event names for span events.
const (
	EventStarted         = "search.started"
	EventNotReady        = "poll.not_ready"
	EventRetry           = "poll.retry"
	EventQueued          = "search.queued"
	EventCancelRequested = "cancel.requested"
	EventCancelFailed    = "cancel.failed"
)
