// Package graph implements the directory client for Microsoft Graph
// (Entra ID / Microsoft 365) using the OAuth2 client-credentials flow.
package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/agentstation/accesssync/internal/transport"
	"github.com/agentstation/accesssync/pkg/constants"
	"github.com/agentstation/accesssync/pkg/directory"
	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/identity"
	"github.com/agentstation/accesssync/pkg/logging"
)

// Name is the directory name reported in logs and errors.
const Name = "graph"

const userODataType = "#microsoft.graph.user"

// memberFields are selected when listing group members.
var memberFields = []string{
	identity.AttrID,
	identity.AttrDisplayName,
	identity.AttrPrincipalName,
	identity.AttrMail,
	identity.AttrGivenName,
	identity.AttrSurname,
}

// Config configures a Graph client.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// Attributes are additional user properties fetched per member, such as
	// the attribute carrying the external handle.
	Attributes []string

	// BaseURL and TokenURL override the public cloud endpoints.
	BaseURL  string
	TokenURL string

	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client lists group members through Microsoft Graph.
type Client struct {
	cfg       Config
	baseURL   string
	http      *http.Client
	transport *transport.Client

	mu     sync.RWMutex
	tokens oauth2.TokenSource
}

var _ directory.Client = (*Client)(nil)

// New validates cfg and returns a client. No network calls are made.
func New(cfg Config) (*Client, error) {
	var missing []string
	if strings.TrimSpace(cfg.TenantID) == "" {
		missing = append(missing, "tenant_id")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		missing = append(missing, "client_secret")
	}
	if len(missing) > 0 {
		return nil, errors.NewConfigError(Name, "missing required settings: "+strings.Join(missing, ", "), nil)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.GraphBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = constants.GraphLoginURL + "/" + url.PathEscape(cfg.TenantID) + "/oauth2/v2.0/token"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
	}
	c.transport = transport.New(Name, &transport.BearerAuth{},
		transport.WithHTTPClient(hc),
		transport.WithCredential(c.accessToken),
	)
	return c, nil
}

// Name implements directory.Client.
func (c *Client) Name() string {
	return Name
}

// Authenticate exchanges the client credentials for an access token.
func (c *Client) Authenticate(ctx context.Context) error {
	cc := clientcredentials.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		TokenURL:     c.cfg.TokenURL,
		Scopes:       []string{constants.GraphScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	// The token source keeps this context for refreshes, so it must outlive
	// the Authenticate call.
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, c.http)
	source := cc.TokenSource(tokenCtx)

	tok, err := source.Token()
	if err != nil {
		return errors.NewAuthenticationError(Name, "client_credentials", "token request rejected", err)
	}
	if tok.AccessToken == "" {
		return errors.NewAuthenticationError(Name, "client_credentials", "no access token received", nil)
	}

	c.mu.Lock()
	c.tokens = oauth2.ReuseTokenSource(tok, source)
	c.mu.Unlock()

	logging.FromContext(ctx).Info().Msg("authenticated with Microsoft Graph")
	return nil
}

func (c *Client) accessToken(context.Context) (string, error) {
	c.mu.RLock()
	tokens := c.tokens
	c.mu.RUnlock()
	if tokens == nil {
		return "", errors.New("not authenticated")
	}
	tok, err := tokens.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

type group struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type groupPage struct {
	Value []group `json:"value"`
}

type memberPage struct {
	Value    []map[string]any `json:"value"`
	NextLink string           `json:"@odata.nextLink"`
}

// GroupMembers finds the group by display name and returns its user members,
// each enriched with the configured attributes.
func (c *Client) GroupMembers(ctx context.Context, name string) ([]identity.Record, error) {
	logger := logging.FromContext(ctx)

	g, err := c.findGroup(ctx, name)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("group_id", g.ID).Msg("found group")

	next := c.baseURL + "/groups/" + url.PathEscape(g.ID) + "/members?$select=" + strings.Join(memberFields, ",")
	var records []identity.Record
	for page := 1; next != ""; page++ {
		var resp memberPage
		if err := c.transport.GetJSON(ctx, next, &resp); err != nil {
			return nil, errors.NewLookupError(Name, name, fmt.Sprintf("listing members (page %d)", page), err)
		}
		for _, m := range resp.Value {
			rec := identity.Record(m)
			if t := rec.String(identity.AttrODataType); t != "" && t != userODataType {
				logger.Debug().Str("type", t).Str("id", rec.ID()).Msg("skipping non-user member")
				continue
			}
			records = append(records, rec)
		}
		next = resp.NextLink
	}
	logger.Info().Int("members", len(records)).Msg("retrieved group members")

	for i, rec := range records {
		full, err := c.user(ctx, rec.ID())
		if err != nil {
			logger.Warn().Err(err).
				Str("principal", rec.PrincipalName()).
				Msg("failed to fetch user details, keeping member record")
			continue
		}
		merged := rec.Clone()
		merged.Merge(full)
		records[i] = merged
	}
	return records, nil
}

func (c *Client) findGroup(ctx context.Context, name string) (group, error) {
	filter := "displayName eq '" + strings.ReplaceAll(name, "'", "''") + "'"
	endpoint := c.baseURL + "/groups?$filter=" + queryEscape(filter) + "&$select=id,displayName"

	var resp groupPage
	if err := c.transport.GetJSON(ctx, endpoint, &resp); err != nil {
		return group{}, errors.NewLookupError(Name, name, "searching for group", err)
	}
	if len(resp.Value) == 0 {
		return group{}, errors.NewGroupNotFoundError(Name, name)
	}
	if len(resp.Value) > 1 {
		logging.FromContext(ctx).Warn().
			Int("matches", len(resp.Value)).
			Msg("several groups share this display name, using the first")
	}
	return resp.Value[0], nil
}

func (c *Client) user(ctx context.Context, id string) (identity.Record, error) {
	fields := append([]string{}, memberFields...)
	fields = append(fields, identity.AttrOnPremisesExtAttrs)
	// extensionAttribute1-15 only exist under onPremisesExtensionAttributes;
	// selecting them directly is rejected.
	for _, a := range c.cfg.Attributes {
		if a = strings.TrimSpace(a); a != "" && !strings.HasPrefix(a, "extensionAttribute") {
			fields = append(fields, a)
		}
	}

	endpoint := c.baseURL + "/users/" + url.PathEscape(id) + "?$select=" + strings.Join(fields, ",")
	var rec map[string]any
	if err := c.transport.GetJSON(ctx, endpoint, &rec); err != nil {
		return nil, err
	}
	return identity.Record(rec), nil
}

// queryEscape escapes s for a query value, keeping spaces as %20.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
