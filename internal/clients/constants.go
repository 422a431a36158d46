package clients

import "time"

const (
	MAX_RETRIES     = 3
	INITIAL_BACKOFF = 250 * time.Millisecond
	MAX_BACKOFF     = 4 * time.Second
	USER_AGENT      = "sentiscope-client/1.0 (+https://github.com/spacesedan/sentiscope)"
)

const (
	CLASSIFY_PATH       = "/api/v1/classify"
	HISTORY_PATH        = "/api/v1/history/"
	HISTORY_SEARCH_PATH = "/api/v1/history/search"
	HEALTH_PATH         = "/api/v1/health"
)
