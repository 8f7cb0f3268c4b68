package pdu

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// PasswordManager interface for password resolution
type PasswordManager interface {
	GetPassword(host string) (string, bool)
}

// EnvironmentPasswordManager resolves device passwords from environment
// variables so credentials can stay out of shell history.
type EnvironmentPasswordManager struct {
	log zerolog.Logger
}

// NewEnvironmentPasswordManager creates a new environment-based password manager
func NewEnvironmentPasswordManager(log zerolog.Logger) *EnvironmentPasswordManager {
	return &EnvironmentPasswordManager{log: log}
}

// GetPassword retrieves the password for a host from environment variables.
//
// Priority 1 is a host-specific variable IPPDU_PASSWORD_<HOST> (dots and
// colons replaced with underscores, uppercased). Priority 2 is the
// multi-device variable IPPDU_PDUS with "host=password;host=password"
// entries.
func (e *EnvironmentPasswordManager) GetPassword(host string) (string, bool) {
	envVar := "IPPDU_PASSWORD_" + normalizeHost(host)
	if password := os.Getenv(envVar); password != "" {
		e.log.Debug().Str("host", host).Str("var", envVar).Msg("using host-specific password from environment")
		return password, true
	}

	if password, found := parseMultiDeviceConfig(host); found {
		e.log.Debug().Str("host", host).Msg("using password from IPPDU_PDUS")
		return password, true
	}

	e.log.Debug().Str("host", host).Msg("no password found in environment")
	return "", false
}

// parseMultiDeviceConfig parses the IPPDU_PDUS environment variable for a
// specific host. Format: host1=password1;host2=password2;...
func parseMultiDeviceConfig(targetHost string) (string, bool) {
	pdusVar := os.Getenv("IPPDU_PDUS")
	if pdusVar == "" {
		return "", false
	}

	for _, entry := range strings.Split(pdusVar, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}

		if strings.TrimSpace(parts[0]) != targetHost {
			continue
		}

		return strings.TrimSpace(parts[1]), true
	}

	return "", false
}

// normalizeHost converts a host to environment variable format
func normalizeHost(host string) string {
	normalized := strings.ReplaceAll(host, ".", "_")
	normalized = strings.ReplaceAll(normalized, ":", "_")
	return strings.ToUpper(normalized)
}
