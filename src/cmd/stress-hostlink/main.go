package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"papermem-capture/src/config"
	"papermem-capture/src/hostlink"
)

type stressOptions struct {
	n        int
	command  string
	deadline time.Duration
	envFile  string
}

type summary struct {
	launched int
	ok       int32
	busy     int32
	remote   int32
	missing  int32
	errs     int32
	elapsed  time.Duration
}

func (s summary) String() string {
	return fmt.Sprintf("launched=%d ok=%d busy=%d remote=%d missing=%d err=%d elapsed=%s",
		s.launched, s.ok, s.busy, s.remote, s.missing, s.errs, s.elapsed)
}

func main() {
	log.SetOutput(io.Discard)
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-hostlink",
		Short:         "Fire concurrent host link requests at a running capture engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFor(opts.command)
			if err != nil {
				return err
			}
			cfg, err := config.LoadWithOptions(config.LoadOptions{EnvFileOverride: opts.envFile})
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			rng := hostlink.Range{Start: cfg.HostLinkPortStart, End: cfg.HostLinkPortEnd}
			s := runWithOptions(*opts, hostlink.NewClient(rng), req)
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.command, "command", "status", "status|hide|ping|save")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Path to env file used to find the host link ports")

	return cmd
}

func requestFor(command string) (hostlink.Request, error) {
	switch c := hostlink.Command(strings.ToUpper(strings.TrimSpace(command))); c {
	case hostlink.CmdStatus, hostlink.CmdHide, hostlink.CmdPing, hostlink.CmdSave:
		return hostlink.Request{Command: c}, nil
	}
	return hostlink.Request{}, fmt.Errorf("unsupported command %q", command)
}

func runWithOptions(opts stressOptions, client hostlink.Client, req hostlink.Request) summary {
	var wg sync.WaitGroup
	s := summary{launched: opts.n}

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			found, _, err := client.Send(ctx, req)
			var remote *hostlink.RemoteError
			switch {
			case errors.As(err, &remote) && strings.Contains(strings.ToLower(remote.Message), "busy"):
				atomic.AddInt32(&s.busy, 1)
			case errors.As(err, &remote):
				atomic.AddInt32(&s.remote, 1)
			case err != nil:
				atomic.AddInt32(&s.errs, 1)
			case !found:
				atomic.AddInt32(&s.missing, 1)
			default:
				atomic.AddInt32(&s.ok, 1)
			}
		}()
	}
	wg.Wait()
	s.elapsed = time.Since(start)
	return s
}
