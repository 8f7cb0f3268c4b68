package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/corbym/gocrest/is"
	"github.com/corbym/gocrest/then"

	"github.com/CTXz/ippdu/pkg/pdu"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"nil maps to internal", nil, 1},
		{"plain error", errors.New("boom"), 1},
		{"connectivity", pdu.NewConnectivityError("unreachable", nil), 2},
		{"auth", pdu.ErrInvalidCredentials, 3},
		{"parse", pdu.NewParseError("bad page", nil), 4},
		{"not found", pdu.NewSelectorNotFoundError("no such outlet"), 5},
		{"ambiguous", pdu.NewAmbiguousSelectorError("two outlets"), 6},
		{"action timeout", pdu.NewActionTimeoutError("never converged", nil), 7},
		{"session", pdu.NewSessionError("no browser", nil), 8},
		{"wrapped taxonomy error", fmt.Errorf("while listing: %w", pdu.NewParseError("bad page", nil)), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			then.AssertThat(t, exitCodeFor(tt.err), is.EqualTo(tt.code))
		})
	}
}

func TestPrintOutlets_Markdown(t *testing.T) {
	outlets := []pdu.Outlet{
		{Index: 0, Name: "Fridge", On: true},
		{Index: 1, Name: "Lamp", On: false},
	}

	output := captureOutput(func() {
		printOutlets(outlets, MarkdownFormat)
	})

	then.AssertThat(t, strings.Contains(output, "| 0      | Fridge | on    |"), is.True())
	then.AssertThat(t, strings.Contains(output, "| 1      | Lamp   | off   |"), is.True())
}

func TestPrintOutlets_Json(t *testing.T) {
	outlets := []pdu.Outlet{
		{Index: 0, Name: "Fridge", On: true},
	}

	output := captureOutput(func() {
		printOutlets(outlets, JsonFormat)
	})

	then.AssertThat(t, strings.Contains(output, `"Name": "Fridge"`), is.True())
	then.AssertThat(t, strings.Contains(output, `"State": "on"`), is.True())
}
