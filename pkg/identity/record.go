// Package identity turns raw directory records into resolved identities
// carrying the local login handle and the external code-hosting handle.
package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// Well-known record attribute names.
const (
	AttrID                 = "id"
	AttrDisplayName        = "displayName"
	AttrPrincipalName      = "userPrincipalName"
	AttrMail               = "mail"
	AttrGivenName          = "givenName"
	AttrSurname            = "surname"
	AttrOnPremisesExtAttrs = "onPremisesExtensionAttributes"
	AttrODataType          = "@odata.type"
)

// Record is an opaque mapping of attribute name to value for one directory
// identity, as returned by a directory client.
type Record map[string]any

// ID returns the directory-assigned identifier.
func (r Record) ID() string {
	return r.String(AttrID)
}

// DisplayName returns the human display name.
func (r Record) DisplayName() string {
	return r.String(AttrDisplayName)
}

// PrincipalName returns the principal name (email-like form).
func (r Record) PrincipalName() string {
	return r.String(AttrPrincipalName)
}

// String returns the attribute formatted as a trimmed string, or "".
func (r Record) String(key string) string {
	if r == nil {
		return ""
	}
	return scalar(r[key])
}

// Attribute returns the raw attribute value and whether it was present.
func (r Record) Attribute(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[key]
	return v, ok
}

// OnPremisesAttribute reads key from the nested onPremisesExtensionAttributes
// mapping.
func (r Record) OnPremisesAttribute(key string) (any, bool) {
	nested, ok := r.Attribute(AttrOnPremisesExtAttrs)
	if !ok {
		return nil, false
	}
	switch m := nested.(type) {
	case map[string]any:
		v, ok := m[key]
		return v, ok
	case Record:
		v, ok := m[key]
		return v, ok
	case map[string]string:
		v, ok := m[key]
		return v, ok
	}
	return nil, false
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies every attribute of other into r, overwriting existing keys.
func (r Record) Merge(other Record) {
	for k, v := range other {
		r[k] = v
	}
}

// scalar renders a directory value as a trimmed string. Single-element
// lists, as LDAP returns them, are unwrapped. Booleans and zero numbers
// are not values and render empty.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []string:
		if len(t) == 1 {
			return strings.TrimSpace(t[0])
		}
		return ""
	case []any:
		if len(t) == 1 {
			return scalar(t[0])
		}
		return ""
	case bool:
		return ""
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		if t == 0 {
			return ""
		}
		return strconv.Itoa(t)
	case int64:
		if t == 0 {
			return ""
		}
		return strconv.FormatInt(t, 10)
	case uint64:
		if t == 0 {
			return ""
		}
		return strconv.FormatUint(t, 10)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	case map[string]any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
