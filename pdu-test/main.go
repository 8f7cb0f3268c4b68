// pdu-test - Real-world smoke test for the ippdu library. Exercises the
// read path and, unless -dry-run is given, one full toggle round-trip
// against actual PDU hardware, restoring the original outlet state.
//
// This intentionally runs against a live device and is therefore not part
// of the regular test suite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/CTXz/ippdu/pkg/pdu"
)

type config struct {
	host     string
	username string
	outlet   string
	dryRun   bool
	debug    bool
	timeout  time.Duration
}

func main() {
	cfg := parseFlags()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	if cfg.debug {
		log = log.Level(zerolog.DebugLevel)
	}

	password, found := pdu.NewEnvironmentPasswordManager(log).GetPassword(cfg.host)
	if !found {
		fmt.Fprintf(os.Stderr, "No password for %s, set IPPDU_PASSWORD_<HOST> or IPPDU_PDUS\n", cfg.host)
		os.Exit(1)
	}

	client := pdu.NewClient(cfg.host, cfg.username, password,
		pdu.WithTimeout(cfg.timeout),
		pdu.WithLogger(log),
	)

	ctx := context.Background()
	failures := 0

	// Step 1: status read
	outlets, err := client.Outlets(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL status read: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("PASS status read: %d outlets\n", len(outlets))
	for _, o := range outlets {
		fmt.Printf("  %d  %-15s  %s\n", o.Index, o.Name, o.State())
	}

	// Step 2: toggle round-trip on the selected outlet
	target, err := pdu.ResolveOutlet(cfg.outlet, outlets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL outlet selection: %v\n", err)
		os.Exit(1)
	}

	if cfg.dryRun {
		fmt.Printf("SKIP toggle round-trip (dry run), would use outlet %d (%s)\n", target.Index, target.Name)
		os.Exit(0)
	}

	selector := strconv.Itoa(target.Index)
	for _, desired := range []bool{!target.On, target.On} {
		result, err := client.SetOutlet(ctx, selector, desired)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL toggle to %v: %v\n", desired, err)
			failures++
			break
		}
		fmt.Printf("PASS toggle: outlet %d now %s (changed=%v)\n",
			result.Outlet.Index, result.Outlet.State(), result.Changed)
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d step(s) failed; outlet %d may need manual restore\n", failures, target.Index)
		os.Exit(1)
	}
	fmt.Println("All steps passed, original state restored.")
}

func parseFlags() *config {
	cfg := &config{}
	flag.StringVar(&cfg.host, "host", "", "PDU hostname or IP (required)")
	flag.StringVar(&cfg.username, "user", "admin", "Device username")
	flag.StringVar(&cfg.outlet, "outlet", "0", "Outlet number or name used for the toggle round-trip")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "Only read status, skip toggling")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug output")
	timeout := flag.Int("timeout", 10, "Network / browser timeout in seconds")
	flag.Parse()

	if cfg.host == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -host PDU [-user NAME] [-outlet N] [-dry-run] [-debug]\n", os.Args[0])
		os.Exit(1)
	}
	cfg.timeout = time.Duration(*timeout) * time.Second
	return cfg
}
