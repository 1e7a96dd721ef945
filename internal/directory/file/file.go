// Package file implements a directory client backed by a roster snapshot on
// disk, for offline runs and tests.
//
// The roster is JSON (comments allowed) or YAML:
//
//	groups:
//	  - name: IT-Team
//	    members:
//	      - id: u1
//	        displayName: Bob Smith
//	        userPrincipalName: bob.smith@corp.example
//	        extensionAttribute1: bobgh
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/jsonc"

	"github.com/agentstation/accesssync/pkg/directory"
	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/identity"
	"github.com/agentstation/accesssync/pkg/logging"
)

// Name is the directory name reported in logs and errors.
const Name = "file"

// Roster is the on-disk snapshot format.
type Roster struct {
	Groups []Group `json:"groups" yaml:"groups"`
}

// Group is one named group and its member records.
type Group struct {
	Name    string           `json:"name" yaml:"name"`
	Members []map[string]any `json:"members" yaml:"members"`
}

// Client serves group members from a roster file.
type Client struct {
	path   string
	roster *Roster
}

var _ directory.Client = (*Client)(nil)

// New returns a client reading the roster at path.
func New(path string) (*Client, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewConfigError(Name, "roster_file is required", nil)
	}
	return &Client{path: path}, nil
}

// Name implements directory.Client.
func (c *Client) Name() string {
	return Name
}

// Authenticate reads and parses the roster.
func (c *Client) Authenticate(ctx context.Context) error {
	roster, err := Load(c.path)
	if err != nil {
		return errors.NewAuthenticationError(Name, "roster_file", "cannot read roster "+c.path, err)
	}
	c.roster = roster
	logging.FromContext(ctx).Debug().Str("path", c.path).Int("groups", len(roster.Groups)).Msg("loaded roster")
	return nil
}

// GroupMembers returns the members of the named group. Group names match
// case-insensitively, as directory display names do.
func (c *Client) GroupMembers(_ context.Context, name string) ([]identity.Record, error) {
	if c.roster == nil {
		return nil, errors.NewLookupError(Name, name, "roster not loaded", nil)
	}
	for _, g := range c.roster.Groups {
		if !strings.EqualFold(g.Name, name) {
			continue
		}
		records := make([]identity.Record, 0, len(g.Members))
		for _, m := range g.Members {
			records = append(records, identity.Record(m).Clone())
		}
		return records, nil
	}
	return nil, errors.NewGroupNotFoundError(Name, name)
}

// Load parses a roster file, choosing YAML or JSON by extension.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return nil, errors.WrapParse("yaml", path, err)
		}
	default:
		data = jsonc.ToJSON(data)
	}

	var roster Roster
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return &roster, nil
}
