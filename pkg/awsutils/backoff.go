package awsutils

import (
	"time"

	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
)

// DefaultBackoff is an exponential backoff counter with jitter enabled.
var DefaultBackoff = backoff.Backoff{
	Min:    1 * time.Second,
	Max:    10 * time.Second,
	Factor: 2,
	Jitter: true,
}

// Retry calls f until it succeeds or has been called attempts times, waiting
// between calls for the durations given by b. Retry returns the last error
// returned by f. Errors for which permanent returns true aren't retried.
func Retry(b backoff.Backoff, attempts int, permanent func(error) bool, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if permanent != nil && permanent(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		d := b.Duration()
		log.WithError(err).WithFields(log.Fields{"attempt": i + 1, "backoff": d}).Warn("retrying")
		time.Sleep(d)
	}
	return err
}
