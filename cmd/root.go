// The cmd package implements the ippdu CLI. It only handles argument
// parsing, credential resolution and result rendering; the device
// operations live in pkg/pdu.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/CTXz/ippdu/pkg/pdu"
)

var (
	flagUsername string
	flagPassword string
	flagHost     string
	flagList     bool
	flagOutlet   string
	flagState    string
	flagTimeout  int
	flagFormat   string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "ippdu",
	Short: "Control 0816-series smart PDUs through their web panel",
	Long: "Command-line control for 0816-series smart PDUs that only expose a web\n" +
		"control panel. Lists outlet states over plain HTTP and toggles outlets\n" +
		"by driving the panel in a headless browser.",
	Example: `  // list all outlets
  ippdu -u admin -p secret -H 10.0.0.5 -l
  // switch outlet 0 on
  ippdu -u admin -p secret -H 10.0.0.5 -o 0 -s 1
  // switch an outlet off by name
  ippdu -u admin -H 10.0.0.5 -o Fridge -s 0`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the CLI and exits with a stable per-category code so the
// tool stays scriptable.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flagUsername, "username", "u", "", "device username for HTTP basic auth and the web login")
	rootCmd.Flags().StringVarP(&flagPassword, "password", "p", "", "device password (falls back to IPPDU_PASSWORD_<HOST>, IPPDU_PDUS, then a prompt)")
	rootCmd.Flags().StringVarP(&flagHost, "host", "H", "", "device hostname or IP")
	rootCmd.Flags().BoolVarP(&flagList, "list", "l", false, "list all outlets")
	rootCmd.Flags().StringVarP(&flagOutlet, "outlet", "o", "", "outlet NUMBER or NAME to act on")
	rootCmd.Flags().StringVarP(&flagState, "state", "s", "", "desired state for -o (0 = off, 1 = on)")
	rootCmd.Flags().IntVarP(&flagTimeout, "timeout", "t", 5, "network / browser timeout in seconds")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", string(MarkdownFormat), "list output format (md or json)")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug output")

	cobra.CheckErr(rootCmd.MarkFlagRequired("username"))
	cobra.CheckErr(rootCmd.MarkFlagRequired("host"))
	rootCmd.MarkFlagsMutuallyExclusive("list", "outlet")
	rootCmd.MarkFlagsOneRequired("list", "outlet")
	rootCmd.MarkFlagsRequiredTogether("outlet", "state")
}

func run(cmd *cobra.Command, args []string) error {
	log := newLogger(flagVerbose)

	format := OutputFormat(flagFormat)
	if format != MarkdownFormat && format != JsonFormat {
		return fmt.Errorf("unknown format %q, expected md or json", flagFormat)
	}

	var desired bool
	if !flagList {
		switch flagState {
		case "0":
			desired = false
		case "1":
			desired = true
		default:
			return fmt.Errorf("invalid state %q, expected 0 or 1", flagState)
		}
	}

	password, err := resolvePassword(log)
	if err != nil {
		return err
	}

	client := pdu.NewClient(flagHost, flagUsername, password,
		pdu.WithTimeout(time.Duration(flagTimeout)*time.Second),
		pdu.WithLogger(log),
	)

	ctx := cmd.Context()

	if flagList {
		outlets, err := client.Outlets(ctx)
		if err != nil {
			return err
		}
		printOutlets(outlets, format)
		return nil
	}

	result, err := client.SetOutlet(ctx, flagOutlet, desired)
	if err != nil {
		return err
	}

	if result.Changed {
		fmt.Printf("Outlet %d (%s) switched %s.\n", result.Outlet.Index, result.Outlet.Name, result.Outlet.State())
	} else {
		fmt.Printf("Outlet %d (%s) already %s.\n", result.Outlet.Index, result.Outlet.Name, result.Outlet.State())
	}
	return nil
}

func printOutlets(outlets []pdu.Outlet, format OutputFormat) {
	header := []string{"Outlet", "Name", "State"}
	content := make([][]string, 0, len(outlets))
	for _, o := range outlets {
		content = append(content, []string{strconv.Itoa(o.Index), o.Name, o.State()})
	}

	if format == JsonFormat {
		printJsonDataTable("outlets", header, content)
		return
	}
	printMarkdownTable(header, content)
}

// resolvePassword falls back from the -p flag to environment variables to
// an interactive prompt.
func resolvePassword(log zerolog.Logger) (string, error) {
	if flagPassword != "" {
		return flagPassword, nil
	}

	if password, found := pdu.NewEnvironmentPasswordManager(log).GetPassword(flagHost); found {
		return password, nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "Password for %s@%s: ", flagUsername, flagHost)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	return "", fmt.Errorf("no password given, set -p, IPPDU_PASSWORD_%s or IPPDU_PDUS", flagHost)
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// Exit codes, stable per error category for scripting:
// 1 usage/internal, 2 connectivity, 3 auth, 4 parse, 5 outlet not found,
// 6 ambiguous outlet, 7 action timeout, 8 browser session.
func exitCodeFor(err error) int {
	var perr *pdu.Error
	if !errors.As(err, &perr) {
		return 1
	}

	switch perr.Type {
	case pdu.ErrorTypeConnectivity:
		return 2
	case pdu.ErrorTypeAuth:
		return 3
	case pdu.ErrorTypeParse:
		return 4
	case pdu.ErrorTypeSelectorNotFound:
		return 5
	case pdu.ErrorTypeAmbiguousSelector:
		return 6
	case pdu.ErrorTypeActionTimeout:
		return 7
	case pdu.ErrorTypeSession:
		return 8
	default:
		return 1
	}
}
