package identity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/accesssync/pkg/constants"
	"github.com/agentstation/accesssync/pkg/errors"
)

// Resolved is an identity with its login and external handles derived.
// ExternalHandle is never empty.
type Resolved struct {
	DirectoryID    string `json:"directory_id"`
	DisplayName    string `json:"display_name"`
	PrincipalName  string `json:"principal_name"`
	LoginHandle    string `json:"login_handle"`
	ExternalHandle string `json:"external_handle"`
}

// Skipped describes a record that could not be resolved.
type Skipped struct {
	DirectoryID   string `json:"directory_id"`
	PrincipalName string `json:"principal_name"`
	DisplayName   string `json:"display_name"`
	Reason        string `json:"reason"`
}

// Resolver derives resolved identities from raw records.
type Resolver struct {
	attribute string
	lower     cases.Caser
}

// NewResolver returns a resolver reading the external handle from attribute.
// An empty attribute selects the default extension attribute.
func NewResolver(attribute string) *Resolver {
	attribute = strings.TrimSpace(attribute)
	if attribute == "" {
		attribute = constants.DefaultExternalHandleAttribute
	}
	return &Resolver{
		attribute: attribute,
		lower:     cases.Lower(language.Und),
	}
}

// Attribute returns the attribute key the resolver reads.
func (r *Resolver) Attribute() string {
	return r.attribute
}

// LoginHandle derives the OS account name from a principal name: the local
// part before the first '@', lower-cased, with every '.' removed.
func (r *Resolver) LoginHandle(principal string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(principal), "@")
	return strings.ReplaceAll(r.lower.String(local), ".", "")
}

// ExternalHandle reads the configured attribute from the record, falling back
// to the same key under onPremisesExtensionAttributes.
func (r *Resolver) ExternalHandle(rec Record) string {
	if v, ok := rec.Attribute(r.attribute); ok {
		if s := scalar(v); s != "" {
			return s
		}
	}
	if v, ok := rec.OnPremisesAttribute(r.attribute); ok {
		return scalar(v)
	}
	return ""
}

// Resolve derives a Resolved identity from rec. A record without an external
// handle yields a *errors.MissingExternalHandleError; callers skip it.
func (r *Resolver) Resolve(rec Record) (Resolved, error) {
	principal := rec.PrincipalName()
	handle := r.ExternalHandle(rec)
	if handle == "" {
		return Resolved{}, &errors.MissingExternalHandleError{
			DirectoryID:   rec.ID(),
			PrincipalName: principal,
			DisplayName:   rec.DisplayName(),
			Attribute:     r.attribute,
		}
	}

	return Resolved{
		DirectoryID:    rec.ID(),
		DisplayName:    rec.DisplayName(),
		PrincipalName:  principal,
		LoginHandle:    r.LoginHandle(principal),
		ExternalHandle: handle,
	}, nil
}

// ResolveAll resolves every record, returning the resolved identities in
// input order and the records that were skipped.
func (r *Resolver) ResolveAll(records []Record) ([]Resolved, []Skipped) {
	resolved := make([]Resolved, 0, len(records))
	var skipped []Skipped
	for _, rec := range records {
		id, err := r.Resolve(rec)
		if err != nil {
			skipped = append(skipped, Skipped{
				DirectoryID:   rec.ID(),
				PrincipalName: rec.PrincipalName(),
				DisplayName:   rec.DisplayName(),
				Reason:        err.Error(),
			})
			continue
		}
		resolved = append(resolved, id)
	}
	return resolved, skipped
}
