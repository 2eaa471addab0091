package hostlink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

type tcpClient struct {
	rng Range
}

func newTcpClient(r Range) *tcpClient { return &tcpClient{rng: r.Normalized()} }

func (c *tcpClient) Send(ctx context.Context, req Request) (bool, string, error) {
	port, ok := DetectResidentPort(ctx, c.rng)
	if !ok {
		return false, "", nil
	}
	if req.Command == CmdPing {
		return true, "PONG", nil
	}

	timeout := 15 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	conn, err := net.DialTimeout("tcp", address(port), timeout)
	if err != nil {
		return true, "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(req.Line()); err != nil {
		return true, "", err
	}
	if err := w.Flush(); err != nil {
		return true, "", err
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return true, "", fmt.Errorf("read response: %w", err)
	}
	body, _ := io.ReadAll(br)
	switch status {
	case successHeader:
		return true, string(body), nil
	case errorHeader:
		return true, "", &RemoteError{Message: string(body)}
	}
	return true, "", fmt.Errorf("unexpected response %q", status)
}
