package access

import (
	"slices"
	"strings"
	"time"

	"github.com/agentstation/accesssync/pkg/identity"
)

// DefaultGroups are the supplementary groups granted to synced accounts.
var DefaultGroups = []string{"users", "sudo"}

// DefaultCommands are the sudo commands granted to limited accounts.
var DefaultCommands = []string{
	"/usr/bin/systemctl restart *",
	"/usr/bin/systemctl reload *",
	"/usr/bin/systemctl status *",
	"/usr/bin/docker *",
	"/usr/bin/journalctl *",
}

// BuilderConfig holds the privilege defaults applied to every synced entry.
type BuilderConfig struct {
	Tier     Tier
	Groups   []string
	Commands []string
}

// DefaultBuilderConfig returns the built-in privilege defaults.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Tier:     TierLimited,
		Groups:   slices.Clone(DefaultGroups),
		Commands: slices.Clone(DefaultCommands),
	}
}

// Builder turns resolved identities into synced entries.
type Builder struct {
	tier     Tier
	groups   []string
	commands []string
}

// NewBuilder validates cfg and returns a builder. Nil lists take the
// built-in defaults; an empty list grants nothing.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	tier := TierLimited
	if cfg.Tier != "" {
		t, err := ParseTier(string(cfg.Tier))
		if err != nil {
			return nil, err
		}
		tier = t
	}

	groups := slices.Clone(DefaultGroups)
	if cfg.Groups != nil {
		groups = dedupe(cfg.Groups)
	}

	commands := slices.Clone(DefaultCommands)
	if cfg.Commands != nil {
		commands = trimAll(cfg.Commands)
	}

	return &Builder{
		tier:     tier,
		groups:   groups,
		commands: commands,
	}, nil
}

// Tier returns the tier granted by the builder.
func (b *Builder) Tier() Tier {
	return b.tier
}

// Build returns the synced entry for id, stamped with runAt.
func (b *Builder) Build(id identity.Resolved, runAt time.Time) Entry {
	ts := NewTimestamp(runAt)
	e := Entry{
		ExternalHandle:  id.ExternalHandle,
		LoginHandle:     id.LoginHandle,
		FullName:        id.DisplayName,
		Tier:            b.tier,
		Groups:          slices.Clone(b.groups),
		SourcePrincipal: id.PrincipalName,
		Synced:          true,
		LastSyncedAt:    &ts,
	}
	if b.tier == TierLimited {
		e.Commands = slices.Clone(b.commands)
	}
	return e
}

// BuildAll builds an entry for every identity, preserving order.
func (b *Builder) BuildAll(ids []identity.Resolved, runAt time.Time) []Entry {
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.Build(id, runAt))
	}
	return out
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
