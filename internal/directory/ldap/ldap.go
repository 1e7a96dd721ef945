// Package ldap implements the directory client for on-premises Active
// Directory over LDAP.
package ldap

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"

	"github.com/agentstation/accesssync/pkg/constants"
	"github.com/agentstation/accesssync/pkg/directory"
	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/identity"
	"github.com/agentstation/accesssync/pkg/logging"
)

// Name is the directory name reported in logs and errors.
const Name = "ldap"

// matchingRuleInChain makes memberOf match transitive membership.
const matchingRuleInChain = "1.2.840.113556.1.4.1941"

// Conn is the subset of *ldap.Conn the client uses.
type Conn interface {
	Bind(username, password string) error
	Search(req *goldap.SearchRequest) (*goldap.SearchResult, error)
	SearchWithPaging(req *goldap.SearchRequest, pagingSize uint32) (*goldap.SearchResult, error)
	Close() error
}

// DialFunc opens a connection to url.
type DialFunc func(url string, timeout time.Duration) (Conn, error)

// Config configures an LDAP client.
type Config struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
	PageSize     uint32

	// Attributes are additional user attributes to read, such as the
	// attribute carrying the external handle.
	Attributes []string

	// Nested includes members of nested groups.
	Nested bool

	Timeout time.Duration
	Dial    DialFunc
}

// Client lists group members from Active Directory.
type Client struct {
	cfg Config

	mu   sync.Mutex
	conn Conn
}

var (
	_ directory.Client = (*Client)(nil)
	_ directory.Closer = (*Client)(nil)
)

// New validates cfg and returns a client. No connection is opened.
func New(cfg Config) (*Client, error) {
	var missing []string
	if strings.TrimSpace(cfg.URL) == "" {
		missing = append(missing, "ldap_url")
	}
	if strings.TrimSpace(cfg.BaseDN) == "" {
		missing = append(missing, "ldap_base_dn")
	}
	if strings.TrimSpace(cfg.BindDN) != "" && cfg.BindPassword == "" {
		missing = append(missing, "ldap_bind_password")
	}
	if len(missing) > 0 {
		return nil, errors.NewConfigError(Name, "missing required settings: "+strings.Join(missing, ", "), nil)
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = constants.DefaultLDAPPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DialTimeout
	}
	if cfg.Dial == nil {
		cfg.Dial = dial
	}
	return &Client{cfg: cfg}, nil
}

func dial(url string, timeout time.Duration) (Conn, error) {
	conn, err := goldap.DialURL(url, goldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, err
	}
	conn.SetTimeout(timeout)
	return conn, nil
}

// Name implements directory.Client.
func (c *Client) Name() string {
	return Name
}

// Authenticate connects and binds with the configured credentials. An empty
// bind DN performs an anonymous bind.
func (c *Client) Authenticate(ctx context.Context) error {
	conn, err := c.cfg.Dial(c.cfg.URL, c.cfg.Timeout)
	if err != nil {
		return errors.NewAuthenticationError(Name, "simple_bind", "failed to connect to "+c.cfg.URL, err)
	}
	if err := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
		_ = conn.Close()
		return errors.NewAuthenticationError(Name, "simple_bind", "bind rejected", err)
	}

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.mu.Unlock()

	logging.FromContext(ctx).Info().Str("url", c.cfg.URL).Msg("bound to LDAP directory")
	return nil
}

// Close releases the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// GroupMembers finds the group by cn and returns its user members.
func (c *Client) GroupMembers(ctx context.Context, name string) ([]identity.Record, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil, errors.NewLookupError(Name, name, "not authenticated", nil)
	}
	logger := logging.FromContext(ctx)

	groupDN, err := c.findGroup(conn, name)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("group_dn", groupDN).Msg("found group")

	if err := ctx.Err(); err != nil {
		return nil, errors.NewLookupError(Name, name, "cancelled", err)
	}

	memberOf := "memberOf"
	if c.cfg.Nested {
		memberOf += ":" + matchingRuleInChain + ":"
	}
	filter := fmt.Sprintf("(&(objectCategory=person)(objectClass=user)(%s=%s))", memberOf, goldap.EscapeFilter(groupDN))

	req := goldap.NewSearchRequest(
		c.cfg.BaseDN,
		goldap.ScopeWholeSubtree,
		goldap.NeverDerefAliases,
		0, 0, false,
		filter,
		c.attributes(),
		nil,
	)
	res, err := conn.SearchWithPaging(req, c.cfg.PageSize)
	if err != nil {
		return nil, errors.NewLookupError(Name, name, "paged member search failed", err)
	}

	records := make([]identity.Record, 0, len(res.Entries))
	for _, entry := range res.Entries {
		records = append(records, c.record(entry))
	}
	logger.Info().Int("members", len(records)).Msg("retrieved group members")
	return records, nil
}

func (c *Client) findGroup(conn Conn, name string) (string, error) {
	req := goldap.NewSearchRequest(
		c.cfg.BaseDN,
		goldap.ScopeWholeSubtree,
		goldap.NeverDerefAliases,
		0, 0, false,
		fmt.Sprintf("(&(objectClass=group)(cn=%s))", goldap.EscapeFilter(name)),
		[]string{"distinguishedName"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return "", errors.NewLookupError(Name, name, "group search failed", err)
	}
	if len(res.Entries) == 0 {
		return "", errors.NewGroupNotFoundError(Name, name)
	}
	return res.Entries[0].DN, nil
}

// ldapAttributes maps AD attribute names to record keys.
var ldapAttributes = map[string]string{
	"displayName":       identity.AttrDisplayName,
	"userPrincipalName": identity.AttrPrincipalName,
	"mail":              identity.AttrMail,
	"givenName":         identity.AttrGivenName,
	"sn":                identity.AttrSurname,
}

func (c *Client) attributes() []string {
	attrs := []string{"objectGUID", "displayName", "userPrincipalName", "mail", "givenName", "sn", "sAMAccountName"}
	for _, a := range c.cfg.Attributes {
		if a = strings.TrimSpace(a); a != "" {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

func (c *Client) record(entry *goldap.Entry) identity.Record {
	rec := identity.Record{"dn": entry.DN}
	if id, err := objectGUID(entry.GetRawAttributeValue("objectGUID")); err == nil {
		rec[identity.AttrID] = id.String()
	} else {
		rec[identity.AttrID] = entry.DN
	}
	for attr, key := range ldapAttributes {
		if v := entry.GetAttributeValue(attr); v != "" {
			rec[key] = v
		}
	}
	if v := entry.GetAttributeValue("sAMAccountName"); v != "" {
		rec["sAMAccountName"] = v
	}
	for _, a := range c.cfg.Attributes {
		switch values := entry.GetAttributeValues(a); len(values) {
		case 0:
		case 1:
			rec[a] = values[0]
		default:
			rec[a] = values
		}
	}
	return rec
}

// objectGUID converts the little-endian AD GUID layout to an RFC 4122 UUID.
func objectGUID(raw []byte) (uuid.UUID, error) {
	if len(raw) != 16 {
		return uuid.Nil, fmt.Errorf("invalid GUID: expected 16 bytes, got %d", len(raw))
	}
	b := make([]byte, 16)
	copy(b, raw)
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	b[4], b[5] = b[5], b[4]
	b[6], b[7] = b[7], b[6]
	return uuid.FromBytes(b)
}
