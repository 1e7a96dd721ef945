package access

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/accesssync/pkg/constants"
)

// Timestamp is a UTC instant persisted in RFC 3339 form. It also reads the
// zone-less ISO form older documents were written with.
type Timestamp struct {
	utc.Time
}

// NewTimestamp wraps t, converting it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: utc.New(t.UTC())}
}

// Now returns the current instant.
func Now() Timestamp {
	return Timestamp{Time: utc.Now()}
}

// ParseTimestamp parses RFC 3339 or the legacy zone-less form, which is
// taken to be UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewTimestamp(t), nil
	}
	t, err := time.ParseInLocation(constants.TimeFormatLegacy, s, time.UTC)
	if err != nil {
		return Timestamp{}, err
	}
	return NewTimestamp(t), nil
}

// String formats the timestamp as RFC 3339 in UTC.
func (t Timestamp) String() string {
	if t.Time.Time.IsZero() {
		return ""
	}
	return t.Time.Time.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
