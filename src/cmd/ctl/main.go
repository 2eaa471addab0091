package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"papermem-capture/src/config"
	"papermem-capture/src/hostlink"
)

const defaultTimeout = 15 * time.Second

// errNoResident is returned when no capture engine answers on the port range.
var errNoResident = errors.New("no running capture engine found")

type ctlOptions struct {
	envFile string
	timeout time.Duration
	verbose bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args), os.Stdout)
}

func exitCode(err error) int {
	if errors.Is(err, errNoResident) {
		return 2
	}
	return 1
}

func runWithArgs(args []string, out io.Writer) error {
	if len(args) == 0 {
		args = []string{"capturectl"}
	}
	opts := &ctlOptions{}
	cmd := newRootCmd(opts)
	cmd.SetOut(out)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *ctlOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "capturectl",
		Short:         "Control a running papermem capture engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetOutput(os.Stderr)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to env file used to find the host link ports")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "Time to wait for the engine to answer")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	cmd.AddCommand(
		requestCmd(opts, "ping", "Check that the engine is running", hostlink.CmdPing),
		requestCmd(opts, "save", "Save the current selection to the active project", hostlink.CmdSave),
		requestCmd(opts, "hide", "Hide the overlay", hostlink.CmdHide),
		requestCmd(opts, "status", "Print engine status", hostlink.CmdStatus),
		&cobra.Command{
			Use:   "project <id>",
			Short: "Set the active project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id := strings.TrimSpace(args[0])
				if id == "" {
					return fmt.Errorf("project id must not be empty")
				}
				return send(cmd, *opts, hostlink.Request{Command: hostlink.CmdProject, Arg: id})
			},
		},
	)

	return cmd
}

func requestCmd(opts *ctlOptions, use, short string, command hostlink.Command) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, *opts, hostlink.Request{Command: command})
		},
	}
}

func send(cmd *cobra.Command, opts ctlOptions, req hostlink.Request) error {
	cfg, err := config.LoadWithOptions(config.LoadOptions{EnvFileOverride: opts.envFile})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	rng := hostlink.Range{Start: cfg.HostLinkPortStart, End: cfg.HostLinkPortEnd}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	log.Printf("sending %s to ports %d-%d", req.Command, rng.Start, rng.End)
	found, payload, err := hostlink.NewClient(rng).Send(ctx, req)
	if err != nil {
		return err
	}
	if !found {
		return errNoResident
	}
	if payload != "" {
		fmt.Fprintln(cmd.OutOrStdout(), payload)
	}
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		switch {
		case arg == "-env-file":
			normalized[i] = "--env-file"
		case strings.HasPrefix(arg, "-env-file="):
			normalized[i] = "--env-file=" + arg[len("-env-file="):]
		case arg == "-timeout":
			normalized[i] = "--timeout"
		case strings.HasPrefix(arg, "-timeout="):
			normalized[i] = "--timeout=" + arg[len("-timeout="):]
		case arg == "-verbose":
			normalized[i] = "--verbose"
		}
	}

	return normalized
}
