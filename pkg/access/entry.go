package access

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// Entry grants one OS account its groups and sudo privileges.
//
// Entries decoded from a document remember their raw JSON object. Manual
// entries are re-emitted from it unchanged, keeping fields this package does
// not model.
type Entry struct {
	ExternalHandle  string     `json:"github_user"`
	LoginHandle     string     `json:"local_user"`
	FullName        string     `json:"full_name"`
	Tier            Tier       `json:"sudo_access,omitempty"`
	Groups          []string   `json:"groups,omitempty"`
	Commands        []string   `json:"sudo_commands,omitempty"`
	SourcePrincipal string     `json:"m365_upn,omitempty"`
	Synced          bool       `json:"m365_sync,omitempty"`
	LastSyncedAt    *Timestamp `json:"last_synced,omitempty"`

	raw json.RawMessage
}

type entryJSON Entry

// entryWire is the decode shape; m365_sync is read leniently.
type entryWire struct {
	entryJSON
	Synced json.RawMessage `json:"m365_sync,omitempty"`
	Groups json.RawMessage `json:"groups,omitempty"`
}

// IsManual reports whether the entry was added by an administrator.
func (e Entry) IsManual() bool {
	return !e.Synced
}

// Raw returns the JSON object the entry was decoded from, if any.
func (e Entry) Raw() json.RawMessage {
	return e.raw
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := e
	out.Groups = slices.Clone(e.Groups)
	out.Commands = slices.Clone(e.Commands)
	out.raw = slices.Clone(e.raw)
	if e.LastSyncedAt != nil {
		ts := *e.LastSyncedAt
		out.LastSyncedAt = &ts
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.IsManual() && len(e.raw) > 0 {
		return e.raw, nil
	}
	out := entryOut{entryJSON: entryJSON(e)}
	if e.Groups != nil {
		out.Groups = &e.Groups
	}
	if e.Commands != nil {
		out.Commands = &e.Commands
	}
	return json.Marshal(out)
}

// entryOut writes configured-but-empty lists as [] rather than omitting them.
type entryOut struct {
	entryJSON
	Groups   *[]string `json:"groups,omitempty"`
	Commands *[]string `json:"sudo_commands,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Entry(w.entryJSON)
	e.Synced = truthy(w.Synced)
	e.Groups = decodeGroups(w.Groups)
	e.raw = slices.Clone(data)
	return nil
}

// truthy mirrors how loosely edited documents mark provenance: any non-empty,
// non-false value counts.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return false
}

// decodeGroups accepts a list of names or a single comma-separated string.
func decodeGroups(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var out []string
		for _, g := range strings.Split(s, ",") {
			if g = strings.TrimSpace(g); g != "" {
				out = append(out, g)
			}
		}
		return out
	}
	return nil
}
