package access

import (
	"fmt"
	"strings"

	"github.com/agentstation/accesssync/pkg/errors"
)

// Tier is the sudo privilege level granted to an account.
type Tier string

// Privilege tiers.
const (
	TierNone    Tier = "none"
	TierLimited Tier = "limited"
	TierFull    Tier = "full"
)

// Tiers lists every valid tier.
var Tiers = []Tier{TierNone, TierLimited, TierFull}

// String returns the tier value.
func (t Tier) String() string {
	return string(t)
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierNone, TierLimited, TierFull:
		return true
	}
	return false
}

// ParseTier parses a tier name case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &errors.ValidationError{
			Field:   "default_sudo_access",
			Value:   s,
			Message: fmt.Sprintf("must be one of %s, %s, %s", TierNone, TierLimited, TierFull),
		}
	}
	return t, nil
}
