// Package hostlink is the loopback control channel between the resident
// capture engine and host tooling. Binding it also enforces a single resident.
package hostlink

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Command names of the line protocol.
type Command string

const (
	CmdPing    Command = "PING"
	CmdProject Command = "PROJECT"
	CmdSave    Command = "SAVE"
	CmdHide    Command = "HIDE"
	CmdStatus  Command = "STATUS"
)

// Request is one client command.
type Request struct {
	Command Command
	Arg     string
}

// Line encodes the request as a protocol line.
func (r Request) Line() string {
	if r.Arg == "" {
		return string(r.Command) + "\n"
	}
	return string(r.Command) + " " + r.Arg + "\n"
}

var ErrUnknownCommand = errors.New("unknown command")

// ParseRequest decodes a protocol line.
func ParseRequest(line string) (Request, error) {
	line = strings.TrimRight(line, "\r\n")
	name, arg, _ := strings.Cut(line, " ")
	cmd := Command(strings.ToUpper(strings.TrimSpace(name)))
	arg = strings.TrimSpace(arg)
	switch cmd {
	case CmdPing, CmdSave, CmdHide, CmdStatus:
		return Request{Command: cmd}, nil
	case CmdProject:
		if arg == "" {
			return Request{}, fmt.Errorf("PROJECT requires an id")
		}
		return Request{Command: cmd, Arg: arg}, nil
	}
	return Request{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Server owns the TCP endpoint and answers host requests.
type Server interface {
	// Start begins listening on the first port of the range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted request as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	Request() Request
	RespondSuccess(payload string) error
	RespondError(msg string) error
	Close() error
}

// RemoteError is an ERROR response from the resident.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Client delivers one command to a resident.
type Client interface {
	// Send scans the range for a resident and delivers req. If no resident is
	// found, returns found=false, err=nil.
	Send(ctx context.Context, req Request) (found bool, payload string, err error)
}

func NewServer(r Range) Server { return newTcpServer(r) }

func NewClient(r Range) Client { return newTcpClient(r) }
