package access

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/agentstation/accesssync/pkg/constants"
)

// Top-level document keys.
const (
	KeyUsers    = "users"
	KeyConfig   = "config"
	KeySyncInfo = "_m365_sync_info"
)

// Settings are the account defaults consumed by the downstream provisioner.
// They are read and written back untouched.
type Settings struct {
	DefaultShell string `json:"default_shell,omitempty"`
	DefaultGroup string `json:"default_group,omitempty"`
	UserHomeBase string `json:"user_home_base,omitempty"`

	raw json.RawMessage
}

type settingsJSON Settings

// DefaultSettings returns the settings of a freshly created document.
func DefaultSettings() Settings {
	return Settings{
		DefaultShell: constants.DefaultShell,
		DefaultGroup: constants.DefaultGroup,
		UserHomeBase: constants.DefaultHomeBase,
	}
}

// MarshalJSON implements json.Marshaler.
func (s Settings) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	return json.Marshal(settingsJSON(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var v settingsJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Settings(v)
	s.raw = slices.Clone(data)
	return nil
}

// SyncSummary records the outcome of the most recent sync.
type SyncSummary struct {
	LastSync    Timestamp `json:"last_sync"`
	SyncedCount int       `json:"synced_users_count"`
	ManualCount int       `json:"manual_users_count"`
	Group       string    `json:"it_group"`
}

// Document is the persisted access-control document.
type Document struct {
	Entries  []Entry
	Settings *Settings
	Summary  *SyncSummary

	// Extra holds top-level keys this package does not model.
	Extra map[string]json.RawMessage

	// extraOrder is the order Extra keys were read in.
	extraOrder []string
}

// NewDocument returns the document used when none exists yet.
func NewDocument() *Document {
	settings := DefaultSettings()
	return &Document{
		Entries:  []Entry{},
		Settings: &settings,
	}
}

// Manual returns the entries added by administrators, in document order.
func (d *Document) Manual() []Entry {
	var out []Entry
	for _, e := range d.Entries {
		if e.IsManual() {
			out = append(out, e)
		}
	}
	return out
}

// Synced returns the entries owned by the sync, in document order.
func (d *Document) Synced() []Entry {
	var out []Entry
	for _, e := range d.Entries {
		if !e.IsManual() {
			out = append(out, e)
		}
	}
	return out
}

// Lookup returns the first entry with the given login handle.
func (d *Document) Lookup(login string) (Entry, bool) {
	for _, e := range d.Entries {
		if e.LoginHandle == login {
			return e, true
		}
	}
	return Entry{}, false
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Entries: make([]Entry, len(d.Entries)),
	}
	for i, e := range d.Entries {
		out.Entries[i] = e.Clone()
	}
	if d.Settings != nil {
		s := *d.Settings
		s.raw = slices.Clone(d.Settings.raw)
		out.Settings = &s
	}
	if d.Summary != nil {
		s := *d.Summary
		out.Summary = &s
	}
	if d.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = slices.Clone(v)
		}
	}
	out.extraOrder = slices.Clone(d.extraOrder)
	return out
}

// MarshalJSON emits users, config and the sync summary first, followed by
// extra keys in the order they were read. Keys added since are sorted after
// them.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	entries := d.Entries
	if entries == nil {
		entries = []Entry{}
	}
	if err := writeField(&buf, KeyUsers, entries, true); err != nil {
		return nil, err
	}
	if d.Settings != nil {
		if err := writeField(&buf, KeyConfig, d.Settings, false); err != nil {
			return nil, err
		}
	}
	if d.Summary != nil {
		if err := writeField(&buf, KeySyncInfo, d.Summary, false); err != nil {
			return nil, err
		}
	}
	for _, k := range d.extraKeys() {
		if err := writeField(&buf, k, d.Extra[k], false); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d Document) extraKeys() []string {
	keys := make([]string, 0, len(d.Extra))
	seen := make(map[string]bool, len(d.Extra))
	for _, k := range d.extraOrder {
		if _, ok := d.Extra[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var added []string
	for k := range d.Extra {
		if !seen[k] {
			added = append(added, k)
		}
	}
	slices.Sort(added)
	return append(keys, added...)
}

func writeField(buf *bytes.Buffer, key string, v any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. A repeated key keeps its first
// position and its last value.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document must be a JSON object")
	}

	out := Document{Entries: []Entry{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}

		switch key {
		case KeyUsers:
			out.Entries = []Entry{}
			if isNull(raw) {
				continue
			}
			if err := json.Unmarshal(raw, &out.Entries); err != nil {
				return fmt.Errorf("decoding %s: %w", KeyUsers, err)
			}
		case KeyConfig:
			out.Settings = nil
			if isNull(raw) {
				continue
			}
			var s Settings
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("decoding %s: %w", KeyConfig, err)
			}
			out.Settings = &s
		case KeySyncInfo:
			out.Summary = nil
			if isNull(raw) {
				continue
			}
			var s SyncSummary
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("decoding %s: %w", KeySyncInfo, err)
			}
			out.Summary = &s
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]json.RawMessage)
			}
			if _, seen := out.Extra[key]; !seen {
				out.extraOrder = append(out.extraOrder, key)
			}
			out.Extra[key] = raw
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if out.Entries == nil {
		out.Entries = []Entry{}
	}

	*d = out
	return nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
