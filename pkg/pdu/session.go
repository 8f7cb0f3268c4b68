package pdu

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// The Apply action on the control page is JavaScript-driven; there is no
// plain HTTP endpoint to call. The write path therefore drives a real
// headless browser through the same steps a human would.

// applyButtonSelector matches the one UI control that commits a toggle.
const applyButtonSelector = `input[name="submit"][value="Apply"]`

// BrowserDriver is the scripted browser session behind SetOutlet. It is
// a scoped resource: Open starts the session, Close must tear it down on
// every exit path, including errors.
type BrowserDriver interface {
	// Open starts the browser session and authenticates it.
	Open(ctx context.Context) error

	// ControlPage returns the rendered HTML of the outlet control page.
	ControlPage(ctx context.Context) (string, error)

	// Apply requests the given outlet be switched on or off.
	Apply(ctx context.Context, outlet int, on bool) error

	// Close tears the session down.
	Close() error
}

// chromeDriver drives a headless Chromium instance via the DevTools
// protocol.
type chromeDriver struct {
	baseURL  string
	username string
	password string
	timeout  time.Duration
	log      zerolog.Logger

	ctx     context.Context
	cancels []context.CancelFunc
}

func newChromeDriver(baseURL, username, password string, timeout time.Duration, log zerolog.Logger) *chromeDriver {
	return &chromeDriver{
		baseURL:  baseURL,
		username: username,
		password: password,
		timeout:  timeout,
		log:      log,
	}
}

// Open launches the headless browser and installs the device credentials
// as basic auth headers on the session. The session context derives from
// ctx, so cancelling the caller tears the browser down too.
func (d *chromeDriver) Open(ctx context.Context) error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	d.ctx = browserCtx
	d.cancels = []context.CancelFunc{browserCancel, allocCancel}

	auth := base64.StdEncoding.EncodeToString([]byte(d.username + ":" + d.password))
	headers := network.Headers{"Authorization": "Basic " + auth}

	err := d.run(
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
	)
	if err != nil {
		d.teardown()
		return NewSessionError("failed to start browser session", err)
	}

	d.log.Debug().Str("url", d.baseURL).Msg("browser session started")
	return nil
}

// ControlPage navigates to the outlet control page and returns the
// rendered document.
func (d *chromeDriver) ControlPage(ctx context.Context) (string, error) {
	var html string
	err := d.run(
		chromedp.Navigate(d.baseURL+controlPagePath),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", NewSessionError("failed to load control page", err)
	}
	return html, nil
}

// Apply loads the control page with the toggle request pre-selected and
// clicks the Apply button.
func (d *chromeDriver) Apply(ctx context.Context, outlet int, on bool) error {
	query := fmt.Sprintf("outlet%d=1&op=%s&submit=Apply", outlet, relayOpFor(on))
	target := fmt.Sprintf("%s%s?%s", d.baseURL, controlPagePath, query)

	d.log.Debug().Int("outlet", outlet).Bool("on", on).Str("url", target).Msg("applying toggle")

	err := d.run(
		chromedp.Navigate(target),
		chromedp.WaitVisible(applyButtonSelector, chromedp.ByQuery),
		chromedp.Click(applyButtonSelector, chromedp.ByQuery),
	)
	if err != nil {
		return NewSessionError(fmt.Sprintf("failed to apply toggle for outlet %d", outlet), err)
	}
	return nil
}

// Close shuts the browser process down.
func (d *chromeDriver) Close() error {
	d.teardown()
	return nil
}

// run executes browser actions with the session timeout applied.
func (d *chromeDriver) run(actions ...chromedp.Action) error {
	if d.ctx == nil {
		return fmt.Errorf("browser session not open")
	}

	runCtx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}

func (d *chromeDriver) teardown() {
	for _, cancel := range d.cancels {
		cancel()
	}
	d.cancels = nil
	d.ctx = nil
}
