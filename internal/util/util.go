package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// isoMillis is the timestamp layout the store keeps in created_at.
// Fixed-width UTC with milliseconds, so lexicographic order is time order.
const isoMillis = "2006-01-02T15:04:05.000Z"

func NowUTC() time.Time {
	return time.Now().UTC()
}

// ISONow returns the current UTC time as an ISO 8601 string.
func ISONow() string {
	return FormatISO(time.Now())
}

func FormatISO(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

// NewRequestID returns a sortable id for request tracing.
func NewRequestID() string {
	t := time.Now().UTC()
	return "req_" + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
