package kafka_client

import "time"

const (
	KAFKA_TOPIC_ANALYSES = "sentiscope.analyses" // one message per analysis the service records
)

const (
	MAX_RETRIES    = 3
	RETRY_DELAY    = 200 * time.Millisecond
	FLUSH_TIMEOUT  = 5 * time.Second
	EVENT_TYPE_KEY = "event_type"
	EVENT_RECORDED = "analysis.recorded"
)
