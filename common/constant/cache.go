package constant

import "time"

const (
	EachEventKey    = "event:%s"
	AttemptStateKey = "attempt:%s:state"
	AttemptStepLock = "attempt:%s:step_lock"
)

const (
	EventCacheDefaultTTL = 1 * time.Hour
	AttemptStateTTL      = 24 * time.Hour
	AttemptStepLockTTL   = 1 * time.Minute
)
