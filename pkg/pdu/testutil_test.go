package pdu

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockPDUServer mimics the device's web panel: a basic-auth protected
// control page and status document, plus the toggle query the Apply
// button submits. Toggles can be made to lag a number of status reads to
// exercise the convergence wait.
type MockPDUServer struct {
	server   *httptest.Server
	username string
	password string

	mu       sync.Mutex
	names    []string
	states   []bool
	lag      int
	pending  *pendingToggle
	requests []RequestLog
}

type pendingToggle struct {
	index    int
	on       bool
	lagReads int
}

type RequestLog struct {
	Method string
	URL    string
	Header http.Header
}

// NewMockPDUServer creates a mock device with the given outlets.
func NewMockPDUServer(names []string, states []bool) *MockPDUServer {
	mock := &MockPDUServer{
		username: "admin",
		password: "test-password",
		names:    names,
		states:   states,
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handler))
	return mock
}

func (m *MockPDUServer) handler(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, RequestLog{
		Method: r.Method,
		URL:    r.URL.String(),
		Header: r.Header,
	})

	user, pass, ok := r.BasicAuth()
	if !ok || user != m.username || pass != m.password {
		w.Header().Set("WWW-Authenticate", `Basic realm="PDU"`)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch r.URL.Path {
	case "/control_outlet.htm":
		m.handleControlPage(w, r)
	case "/status.xml":
		m.handleStatus(w)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (m *MockPDUServer) handleControlPage(w http.ResponseWriter, r *http.Request) {
	// The Apply click submits the toggle as query parameters. The real
	// firmware flips the relay asynchronously; the mock applies it after
	// lagReads further status fetches.
	if op := r.URL.Query().Get("op"); op != "" {
		for i := range m.names {
			if r.URL.Query().Get(fmt.Sprintf("outlet%d", i)) == "1" {
				m.pending = &pendingToggle{
					index:    i,
					on:       op == "0",
					lagReads: m.lag,
				}
			}
		}
	}

	w.Write([]byte(m.controlHTMLLocked()))
}

func (m *MockPDUServer) handleStatus(w http.ResponseWriter) {
	if m.pending != nil {
		if m.pending.lagReads <= 0 {
			if m.pending.index < len(m.states) {
				m.states[m.pending.index] = m.pending.on
			}
			m.pending = nil
		} else {
			m.pending.lagReads--
		}
	}

	var sb strings.Builder
	sb.WriteString("<response>")
	for i, on := range m.states {
		state := "off"
		if on {
			state = "on"
		}
		fmt.Fprintf(&sb, "<outletStat%d>%s</outletStat%d>", i, state, i)
	}
	sb.WriteString("</response>")
	w.Write([]byte(sb.String()))
}

func (m *MockPDUServer) controlHTMLLocked() string {
	var sb strings.Builder
	sb.WriteString(`<html><body><form><table>`)
	sb.WriteString(`<tr><td>All</td><td><input type="checkbox" name="outlet_check_all"/></td></tr>`)
	for i, name := range m.names {
		fmt.Fprintf(&sb,
			`<tr><td> %s </td><td><input type="checkbox" name="outlet%d"/></td></tr>`,
			name, i)
	}
	sb.WriteString(`</table><input type="submit" name="submit" value="Apply"/></form></body></html>`)
	return sb.String()
}

// ControlHTML returns the current control page markup.
func (m *MockPDUServer) ControlHTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controlHTMLLocked()
}

// SetToggleLag makes subsequent toggles lag the given number of status
// reads before the status document reflects them.
func (m *MockPDUServer) SetToggleLag(reads int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lag = reads
}

func (m *MockPDUServer) Close() {
	m.server.Close()
}

func (m *MockPDUServer) URL() string {
	return m.server.URL
}

func (m *MockPDUServer) GetRequests() []RequestLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RequestLog(nil), m.requests...)
}

// fakeBrowserDriver drives the mock server the way the chromedp driver
// drives the real panel, without launching a browser.
type fakeBrowserDriver struct {
	srv     *MockPDUServer
	openErr error

	opened  bool
	closed  bool
	applies []appliedToggle
}

type appliedToggle struct {
	outlet int
	on     bool
}

func (d *fakeBrowserDriver) Open(ctx context.Context) error {
	if d.openErr != nil {
		return NewSessionError("failed to start browser session", d.openErr)
	}
	d.opened = true
	return nil
}

func (d *fakeBrowserDriver) ControlPage(ctx context.Context) (string, error) {
	if !d.opened {
		return "", NewSessionError("browser session not open", nil)
	}
	return d.srv.ControlHTML(), nil
}

func (d *fakeBrowserDriver) Apply(ctx context.Context, outlet int, on bool) error {
	if !d.opened {
		return NewSessionError("browser session not open", nil)
	}
	d.applies = append(d.applies, appliedToggle{outlet: outlet, on: on})

	op := "1"
	if on {
		op = "0"
	}
	url := fmt.Sprintf("%s/control_outlet.htm?outlet%d=1&op=%s&submit=Apply", d.srv.URL(), outlet, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(d.srv.username, d.srv.password)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return NewSessionError("failed to apply toggle", err)
	}
	resp.Body.Close()
	return nil
}

func (d *fakeBrowserDriver) Close() error {
	d.closed = true
	return nil
}
