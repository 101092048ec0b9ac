package flow

import (
	"sync/atomic"
	"time"
)

// resilientFlag records that the authority has shown transient trouble. Once
// set it stays set for the life of the client, so later transient failures
// take the stale-token fallback without re-deriving the condition.
type resilientFlag struct {
	v atomic.Bool
}

func (f *resilientFlag) set()        { f.v.Store(true) }
func (f *resilientFlag) isSet() bool { return f.v.Load() }

func secondsToDuration(s int64) time.Duration {
	return time.Duration(s) * time.Second
}

func timeFromUnix(s int64) time.Time {
	return time.Unix(s, 0).UTC()
}
