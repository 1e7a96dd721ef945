package accesssync

import (
	"net/http"
	"strings"
	"time"

	"github.com/agentstation/accesssync/internal/directory/file"
	"github.com/agentstation/accesssync/internal/directory/graph"
	"github.com/agentstation/accesssync/internal/directory/ldap"
	"github.com/agentstation/accesssync/pkg/directory"
	"github.com/agentstation/accesssync/pkg/errors"
)

// DirectoryConfig selects and configures a directory client.
type DirectoryConfig struct {
	Kind directory.Kind

	// Attributes are extra attributes to fetch per member, such as the
	// attribute carrying the external handle.
	Attributes []string

	// Microsoft Graph
	TenantID     string
	ClientID     string
	ClientSecret string
	GraphBaseURL string
	TokenURL     string
	HTTPTimeout  time.Duration
	HTTPClient   *http.Client

	// Active Directory over LDAP
	LDAPURL          string
	LDAPBindDN       string
	LDAPBindPassword string
	LDAPBaseDN       string
	LDAPPageSize     uint32
	LDAPNested       bool

	// Roster snapshot
	RosterFile string
}

// NewDirectory creates the directory client described by cfg. An empty
// kind selects Microsoft Graph.
func NewDirectory(cfg DirectoryConfig) (directory.Client, error) {
	kind := directory.Kind(strings.ToLower(strings.TrimSpace(string(cfg.Kind))))
	if kind == "" {
		kind = directory.KindGraph
	}

	var (
		client directory.Client
		err    error
	)
	switch kind {
	case directory.KindGraph:
		client, err = newGraph(graph.Config{
			TenantID:     cfg.TenantID,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Attributes:   cfg.Attributes,
			BaseURL:      cfg.GraphBaseURL,
			TokenURL:     cfg.TokenURL,
			Timeout:      cfg.HTTPTimeout,
			HTTPClient:   cfg.HTTPClient,
		})
	case directory.KindLDAP:
		client, err = newLDAP(ldap.Config{
			URL:          cfg.LDAPURL,
			BindDN:       cfg.LDAPBindDN,
			BindPassword: cfg.LDAPBindPassword,
			BaseDN:       cfg.LDAPBaseDN,
			PageSize:     cfg.LDAPPageSize,
			Attributes:   cfg.Attributes,
			Nested:       cfg.LDAPNested,
			Timeout:      cfg.HTTPTimeout,
		})
	case directory.KindFile:
		client, err = newFile(cfg.RosterFile)
	default:
		err = errors.NewConfigError("directory", "unsupported directory "+string(cfg.Kind), nil)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newGraph(cfg graph.Config) (directory.Client, error) {
	c, err := graph.New(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newLDAP(cfg ldap.Config) (directory.Client, error) {
	c, err := ldap.New(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newFile(path string) (directory.Client, error) {
	c, err := file.New(path)
	if err != nil {
		return nil, err
	}
	return c, nil
}
