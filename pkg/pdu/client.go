package pdu

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/CTXz/ippdu/pkg/pdu/internal"
)

const (
	controlPagePath = "/control_outlet.htm"
	statusPagePath  = "/status.xml"

	defaultTimeout      = 5 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

// Client represents a connection to a smart PDU. Each instance targets
// one device; operations are synchronous and hold no state between calls.
type Client struct {
	address    string
	username   string
	password   string
	httpClient *internal.HTTPClient
	browser    BrowserDriver

	timeout      time.Duration
	pollInterval time.Duration
	log          zerolog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithTimeout sets the timeout for HTTP requests, browser navigation and
// the post-toggle convergence wait.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger used by the client and its HTTP layer.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithBrowserDriver sets a custom browser driver for the write path.
func WithBrowserDriver(d BrowserDriver) ClientOption {
	return func(c *Client) {
		c.browser = d
	}
}

// NewClient creates a new PDU client. The address is the device host or
// IP, with or without an http:// prefix.
func NewClient(address, username, password string, opts ...ClientOption) *Client {
	client := &Client{
		address:      address,
		username:     username,
		password:     password,
		timeout:      defaultTimeout,
		pollInterval: defaultPollInterval,
		log:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	client.httpClient = internal.NewHTTPClient(address, username, password, client.timeout, client.log)
	if client.browser == nil {
		client.browser = newChromeDriver(client.httpClient.BaseURL(), username, password, client.timeout, client.log)
	}

	return client
}

// BaseURL returns the device base URL.
func (c *Client) BaseURL() string {
	return c.httpClient.BaseURL()
}

// Outlets performs one authenticated status query and returns the full
// outlet list ordered by index. The snapshot is complete or the call
// fails; a partial list is never returned.
func (c *Client) Outlets(ctx context.Context) ([]Outlet, error) {
	names, err := c.fetchNames(ctx)
	if err != nil {
		return nil, err
	}

	states, err := c.fetchStates(ctx)
	if err != nil {
		return nil, err
	}

	return mergeSnapshot(names, states)
}

// fetchNames downloads and parses the control page into outlet names.
func (c *Client) fetchNames(ctx context.Context) (map[int]string, error) {
	body, err := c.fetchPage(ctx, controlPagePath)
	if err != nil {
		return nil, err
	}

	names, err := internal.ParseOutletNames(body)
	if err != nil {
		return nil, NewParseError("control page structure not recognized", err)
	}

	return names, nil
}

// fetchStates downloads and parses the status document into outlet states.
func (c *Client) fetchStates(ctx context.Context) (map[int]bool, error) {
	body, err := c.fetchPage(ctx, statusPagePath)
	if err != nil {
		return nil, err
	}

	states, err := internal.ParseOutletStates(body)
	if err != nil {
		return nil, NewParseError("status document structure not recognized", err)
	}

	return states, nil
}

// fetchPage downloads one device page, mapping transport and HTTP status
// failures onto the error taxonomy.
func (c *Client) fetchPage(ctx context.Context, path string) (string, error) {
	resp, err := c.httpClient.Get(ctx, path)
	if err != nil {
		return "", NewConnectivityError(fmt.Sprintf("device unreachable fetching %s", path), err)
	}

	body, err := c.httpClient.ReadBody(resp)
	if err != nil {
		return "", NewConnectivityError(fmt.Sprintf("failed to read %s", path), err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		return "", NewAuthError(fmt.Sprintf("device returned status %d for %s", resp.StatusCode, path), nil)
	}

	return body, nil
}

// mergeSnapshot combines parsed names and states into an ordered outlet
// list. Both pages must agree on the outlet set; a name without a state
// would otherwise yield a fabricated record.
func mergeSnapshot(names map[int]string, states map[int]bool) ([]Outlet, error) {
	if len(names) == 0 {
		return nil, ErrNoOutlets
	}

	indices := make([]int, 0, len(names))
	for num := range names {
		indices = append(indices, num)
	}
	sort.Ints(indices)

	outlets := make([]Outlet, 0, len(indices))
	for _, num := range indices {
		on, ok := states[num]
		if !ok {
			return nil, NewParseError(fmt.Sprintf("no state reported for outlet %d", num), nil)
		}
		outlets = append(outlets, Outlet{
			Index: num,
			Name:  names[num],
			On:    on,
		})
	}

	return outlets, nil
}

// SetOutlet drives a scoped browser session to switch the selected outlet
// to the desired state. The selector is resolved against the outlet list
// read live from the rendered control page. If the outlet is already in
// the desired state no click is performed. Success is reported only after
// a confirming status re-read shows the new state.
func (c *Client) SetOutlet(ctx context.Context, selector string, on bool) (*ToggleResult, error) {
	// Cheap pre-flight over plain HTTP so bad credentials or an
	// unreachable device fail before a browser is launched. Also the
	// state source for the rendered name list below.
	states, err := c.fetchStates(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.browser.Open(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if cerr := c.browser.Close(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("failed to close browser session")
		}
	}()

	rendered, err := c.browser.ControlPage(ctx)
	if err != nil {
		return nil, err
	}

	names, err := internal.ParseOutletNames(rendered)
	if err != nil {
		return nil, NewParseError("rendered control page structure not recognized", err)
	}

	outlets, err := mergeSnapshot(names, states)
	if err != nil {
		return nil, err
	}

	outlet, err := ResolveOutlet(selector, outlets)
	if err != nil {
		return nil, err
	}

	if outlet.On == on {
		c.log.Info().Int("outlet", outlet.Index).Str("state", outlet.State()).
			Msg("outlet already in desired state")
		return &ToggleResult{Outlet: outlet, Changed: false}, nil
	}

	if err := c.browser.Apply(ctx, outlet.Index, on); err != nil {
		return nil, err
	}

	confirmed, err := c.awaitState(ctx, outlet.Index, on)
	if err != nil {
		return nil, err
	}

	confirmed.Name = outlet.Name
	return &ToggleResult{Outlet: confirmed, Changed: true}, nil
}

// awaitState polls the status page until the outlet reports the desired
// state or the bounded wait expires. The device's web server can lag
// behind the relay, so a click alone is not success.
func (c *Client) awaitState(ctx context.Context, index int, on bool) (Outlet, error) {
	deadline := time.Now().Add(c.timeout)

	for {
		states, err := c.fetchStates(ctx)
		if err == nil {
			state, ok := states[index]
			if ok && state == on {
				return Outlet{Index: index, On: state}, nil
			}
		} else {
			c.log.Debug().Err(err).Msg("status re-read failed, retrying")
		}

		if time.Now().After(deadline) {
			return Outlet{}, NewActionTimeoutError(
				fmt.Sprintf("outlet %d did not reach state %q within %s", index, Outlet{On: on}.State(), c.timeout), nil)
		}

		select {
		case <-ctx.Done():
			return Outlet{}, NewActionTimeoutError("cancelled waiting for outlet state", ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}
