package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/logging"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds every single HTTP request of a Client.
const DefaultTimeout = 30 * time.Second

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("portal")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		debugLog.Warnf("Failed to initialize portal logger, using stderr fallback: %v", err)
	}
}

// Client is the network-backed Backend. It owns its cookie jar and Session;
// use one Client per logical portal session.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
	session    *Session
	orgPattern *regexp.Regexp
	log        *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithTransport sets the HTTP transport used for every request.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithLogger routes the client's protocol log to l.
func WithLogger(l *logging.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithOrganisationPattern overrides DefaultOrganisationPattern. The pattern
// must have one capture group.
func WithOrganisationPattern(re *regexp.Regexp) ClientOption {
	return func(c *Client) {
		c.orgPattern = re
	}
}

// NewClient creates a logged out client for the portal at endpoints.BaseURL.
// Empty endpoint fields fall back to the defaults.
func NewClient(endpoints Endpoints, opts ...ClientOption) (*Client, error) {
	endpoints = endpoints.withDefaults()
	if err := endpoints.Validate(); err != nil {
		return nil, err
	}

	jar, err := newJar()
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
		},
		session:    NewSession(),
		orgPattern: DefaultOrganisationPattern,
		log:        debugLog,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}

func (c *Client) resetJar() error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	c.httpClient.Jar = jar
	return nil
}

// Endpoints returns the resolved endpoint configuration.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// IsAuthenticated implements Backend.
func (c *Client) IsAuthenticated() bool {
	return c.session.IsAuthenticated()
}

// Username implements Backend.
func (c *Client) Username() string {
	return c.session.Username()
}

// Login fetches the entry page, submits the credentials together with the
// page's anti-forgery token, and then checks the entry page again for the
// success marker. The logon response itself is not inspected; the marker is
// the only signal the portal gives.
func (c *Client) Login(ctx context.Context, username, password string) (bool, error) {
	// Every attempt starts from a fresh cookie jar so a previous portal
	// session cannot satisfy the marker check.
	c.session.Clear()
	if err := c.resetJar(); err != nil {
		return false, err
	}
	entryURL := c.endpoints.resolve(c.endpoints.EntryPath, 0, nil)

	c.log.Infof("Login as %q: loading entry page %s", username, entryURL)
	status, body, err := c.do(ctx, http.MethodGet, entryURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to load entry page: %w", err)
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("entry page returned HTTP %d", status)
	}

	token, err := ExtractAntiforgeryTokenNamed(body, c.endpoints.TokenField)
	if err != nil {
		return false, fmt.Errorf("login form: %w", err)
	}

	form := url.Values{
		c.endpoints.TokenField: {token},
		"UserName":             {username},
		"Password":             {password},
		"StayLoggedIn":         {"false"},
	}
	logonURL := c.endpoints.resolve(c.endpoints.LogonPath, 0, nil)
	if _, _, err := c.do(ctx, http.MethodPost, logonURL, form); err != nil {
		return false, fmt.Errorf("failed to submit credentials: %w", err)
	}

	status, body, err = c.do(ctx, http.MethodGet, entryURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to verify login: %w", err)
	}
	if status != http.StatusOK || !strings.Contains(body, c.endpoints.SuccessMarker) {
		c.log.Warnf("Login as %q rejected (HTTP %d, marker missing)", username, status)
		return false, nil
	}

	c.session.MarkAuthenticated(username)
	c.log.Infof("Logged in as %q", username)
	return true, nil
}

// Logout asks the portal to end the session and always clears local state,
// including the cookie jar. Portal errors are only logged.
func (c *Client) Logout(ctx context.Context) {
	logoffURL := c.endpoints.resolve(c.endpoints.LogoffPath, 0, nil)
	if status, _, err := c.do(ctx, http.MethodGet, logoffURL, nil); err != nil {
		c.log.Warnf("Logoff request failed: %v", err)
	} else {
		c.log.Debugf("Logoff returned HTTP %d", status)
	}

	c.session.Clear()
	if err := c.resetJar(); err != nil {
		c.log.Warnf("Failed to reset cookies: %v", err)
	}
	c.log.Infof("Logged out")
}

// listResponse is the grid payload of the listing endpoint.
type listResponse struct {
	Data []listRecord `json:"Data"`
}

type listRecord struct {
	ID               int    `json:"Id"`
	Stichwort        string `json:"Stichwort"`
	BeginnText       string `json:"BeginnText"`
	Gesamtstatus     string `json:"Gesamtstatus"`
	Kurzbeschreibung string `json:"Kurzbeschreibung"`
}

func (r listRecord) workItem() WorkItem {
	return WorkItem{
		ID:          r.ID,
		Title:       r.Stichwort,
		Date:        r.BeginnText,
		Status:      r.Gesamtstatus,
		Description: r.Kurzbeschreibung,
	}
}

// ListItems returns the reports in the order the portal lists them.
func (c *Client) ListItems(ctx context.Context) ([]WorkItem, error) {
	if !c.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	listURL := c.endpoints.resolve(c.endpoints.ListPath, 0, nil)
	status, body, err := c.do(ctx, http.MethodPost, listURL, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list endpoint returned HTTP %d", status)
	}

	var resp listResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode item list: %w", err)
	}

	items := make([]WorkItem, 0, len(resp.Data))
	for _, rec := range resp.Data {
		items = append(items, rec.workItem())
	}
	c.log.Infof("Listed %d items", len(items))
	return items, nil
}

// ConfirmItem runs the two-phase status update for id.
//
// Prepare loads the status page in draft status; a non-200 answer means the
// item cannot be confirmed right now and yields (false, nil). The page must
// carry both the anti-forgery token and the organisation id, otherwise the
// harvesting error is returned. Commit posts the confirmed status and
// succeeds exactly on HTTP 200.
func (c *Client) ConfirmItem(ctx context.Context, id int) (bool, error) {
	if !c.session.IsAuthenticated() {
		return false, ErrNotAuthenticated
	}

	statusURL := c.endpoints.resolve(c.endpoints.StatusPath, id, url.Values{
		"status": {c.endpoints.DraftStatus},
	})
	c.log.Debugf("Item %d: loading status page", id)
	status, body, err := c.do(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return false, fmt.Errorf("item %d: failed to load status page: %w", id, err)
	}
	if status != http.StatusOK {
		c.log.Infof("Item %d: status page returned HTTP %d, not confirmable", id, status)
		return false, nil
	}

	token, err := ExtractAntiforgeryTokenNamed(body, c.endpoints.TokenField)
	if err != nil {
		return false, fmt.Errorf("item %d: %w", id, err)
	}
	orgID, err := ExtractOrganisationIDWith(body, c.orgPattern)
	if err != nil {
		return false, fmt.Errorf("item %d: %w", id, err)
	}

	saveURL := c.endpoints.resolve(c.endpoints.SaveStatusPath, id, url.Values{
		"status":         {c.endpoints.ConfirmedStatus},
		"organisationId": {orgID},
	})
	form := url.Values{
		c.endpoints.TokenField: {token},
		"Bemerkung":            {""},
	}
	status, _, err = c.do(ctx, http.MethodPost, saveURL, form)
	if err != nil {
		return false, fmt.Errorf("item %d: failed to save status: %w", id, err)
	}
	if status != http.StatusOK {
		c.log.Warnf("Item %d: save status returned HTTP %d", id, status)
		return false, nil
	}

	c.log.Infof("Item %d confirmed", id)
	return true, nil
}

// do performs one request and returns status code and body. A non-nil form
// is sent url-encoded.
func (c *Client) do(ctx context.Context, method, rawURL string, form url.Values) (int, string, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}
