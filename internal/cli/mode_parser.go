package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeTracking = "tracking-service"
	ModeDriver   = "driver-app"
	ModeCustomer = "customer-app"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeTracking, "tracking", "server", "t":
		return ModeTracking, true
	case ModeDriver, "driver", "d":
		return ModeDriver, true
	case ModeCustomer, "customer", "track", "c":
		return ModeCustomer, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `driver-app --booking=bkg-1`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := range args {
		arg := args[i]
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<app>")
	}

	if m, ok := isKnownMode(mode); ok {
		mode = m
	}

	return mode, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./shuttle-track --mode=<app> [flags]

Apps (modes):
  tracking-service    Backend: tracking, pricing, promo, SMS worker, live feed
  driver-app          Driver-side location capture and upload loop
  customer-app        Customer-side tracking page (poll + map render)

Examples:
  ./shuttle-track --mode=tracking-service --max-concurrent=100
  ./shuttle-track --mode=driver-app --booking=bkg-1 --driver=drv-1 --token=<jwt>
  ./shuttle-track --mode=customer-app --ref=HB1234`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./shuttle-track --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
