package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/odmtools/blpolicy/authvar"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("generate_blpolicy_oemvars", pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: generate_blpolicy_oemvars [options] <output filename>")
		fmt.Fprint(os.Stderr, flags.FlagUsages())
	}

	odmPair := flags.StringP("odm-pair", "K", "", "prefix for <prefix>.pk8 and <prefix>.x509.pem (required)")
	oakCert := flags.StringP("oak-cert", "O", "", "OAK certificate (PEM)")
	bpmValue := flags.StringP("bpm-value", "B", "", "bootloader policy bitmask (0x hex or decimal)")
	disable := flags.StringP("disable", "D", "", "also emit a disable document at this path")
	timestamp := flags.Int64P("timestamp", "T", 0, "signing timestamp, unix seconds (default: current time)")
	password := flags.StringP("password", "P", "", "decryption password for the private key")
	verbose := flags.BoolP("verbose", "v", false, "echo external tool invocations")
	timeout := flags.Duration("tool-timeout", 0, "bound on each external tool call (0 waits forever)")
	help := flags.BoolP("help", "h", false, "print usage and exit")

	// ExitOnError: parse failures exit 2.
	flags.Parse(os.Args[1:])
	if *help {
		flags.Usage()
		os.Exit(0)
	}

	req := &authvar.Request{
		KeyPairPrefix: *odmPair,
		OAKCertPath:   *oakCert,
		Password:      *password,
		Timestamp:     *timestamp,
		DisablePath:   *disable,
	}
	if *bpmValue != "" {
		v, err := authvar.ParseBitmask(*bpmValue)
		if err != nil {
			fatal(flags, err)
		}
		req.BPMValue = v
	}
	if !flags.Changed("timestamp") {
		req.Timestamp = time.Now().Unix()
	}
	if flags.NArg() != 1 {
		fatal(flags, &authvar.ConfigError{Msg: "expected exactly one output filename"})
	}

	gen := authvar.NewGenerator(*verbose, *timeout)
	if err := gen.Run(req, flags.Arg(0)); err != nil {
		fatal(flags, err)
	}
}

func fatal(flags *pflag.FlagSet, err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
	var cerr *authvar.ConfigError
	if errors.As(err, &cerr) {
		flags.Usage()
	}
	os.Exit(1)
}
