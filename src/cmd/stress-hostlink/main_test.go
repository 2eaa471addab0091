package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"papermem-capture/src/hostlink"
)

type countingClient struct {
	calls atomic.Int32
	reply func(n int32) (bool, string, error)
}

func (c *countingClient) Send(ctx context.Context, req hostlink.Request) (bool, string, error) {
	return c.reply(c.calls.Add(1))
}

func TestNewRootCmdDefaults(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.n != 50 {
		t.Fatalf("Expected default n=50, got %d", opts.n)
	}
	if opts.command != "status" {
		t.Fatalf("Expected default command=status, got %q", opts.command)
	}
	if opts.deadline != 5*time.Second {
		t.Fatalf("Expected default deadline=5s, got %v", opts.deadline)
	}
}

func TestNewRootCmdCustomFlags(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--n", "3", "--command", "hide", "--deadline", "7s", "--env-file", "/tmp/e"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.n != 3 || opts.command != "hide" || opts.deadline != 7*time.Second || opts.envFile != "/tmp/e" {
		t.Fatalf("Unexpected options: %+v", *opts)
	}
}

func TestRequestFor(t *testing.T) {
	req, err := requestFor("Save")
	if err != nil || req.Command != hostlink.CmdSave {
		t.Fatalf("Expected SAVE request, got %+v, %v", req, err)
	}
	if _, err := requestFor("project"); err == nil {
		t.Fatal("Expected error for project without id")
	}
}

func TestRunWithOptionsCountsOutcomes(t *testing.T) {
	client := &countingClient{reply: func(n int32) (bool, string, error) {
		switch n % 5 {
		case 0:
			return true, "", &hostlink.RemoteError{Message: "NetworkError: busy, please retry"}
		case 1:
			return true, "", &hostlink.RemoteError{Message: "NoProject: no active project"}
		case 2:
			return true, "", errors.New("read response: EOF")
		case 3:
			return false, "", nil
		}
		return true, "ok", nil
	}}

	s := runWithOptions(stressOptions{n: 10, deadline: time.Second}, client, hostlink.Request{Command: hostlink.CmdSave})
	if s.launched != 10 {
		t.Fatalf("Expected launched=10, got %d", s.launched)
	}
	if s.ok != 2 || s.busy != 2 || s.remote != 2 || s.errs != 2 || s.missing != 2 {
		t.Fatalf("Unexpected summary: %s", s)
	}
}
