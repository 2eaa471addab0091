package hostlink

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

const (
	residentHost    = "127.0.0.1"
	pingRequest     = "PING\n"
	pongResponse    = "PONG\n"
	successHeader   = "SUCCESS\n"
	errorHeader     = "ERROR\n"
	requestDeadline = 3 * time.Second
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	rng      Range
	lis      net.Listener
	incoming chan *tcpConn
	done     chan struct{}
	port     int
	once     sync.Once
}

func newTcpServer(r Range) *tcpServer {
	return &tcpServer{
		rng:      r.Normalized(),
		incoming: make(chan *tcpConn, 8),
		done:     make(chan struct{}),
	}
}

// Start binds ONLY the start port of the range. If occupied, fail.
func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	addr := address(s.rng.Start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("hostlink: failed to bind %s: %v", addr, err)
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	s.lis = lis
	s.port = s.rng.Start
	log.Printf("hostlink: listening on %s", addr)
	go s.acceptLoop(ctx, lis)
	return nil
}

func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		remote := c.RemoteAddr().String()
		_ = c.SetDeadline(time.Now().Add(requestDeadline))
		br := bufio.NewReader(c)
		bw := bufio.NewWriter(c)
		line, _ := br.ReadString('\n')
		if line == pingRequest {
			_, _ = bw.WriteString(pongResponse)
			_ = bw.Flush()
			_ = c.Close()
			continue
		}
		req, err := ParseRequest(line)
		if err != nil {
			log.Printf("hostlink: bad request from %s: %v", remote, err)
			_, _ = bw.WriteString(errorHeader + err.Error())
			_ = bw.Flush()
			_ = c.Close()
			continue
		}
		_ = c.SetDeadline(time.Time{})
		log.Printf("hostlink: %s from %s", req.Command, remote)
		tc := &tcpConn{c: c, r: req, w: bw}
		select {
		case s.incoming <- tc:
		case <-ctx.Done():
			_ = c.Close()
			return
		case <-s.done:
			_ = c.Close()
			return
		}
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, net.ErrClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.once.Do(func() {
		close(s.done)
		if s.lis != nil {
			_ = s.lis.Close()
		}
	})
	return nil
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(payload string) error {
	if _, err := tc.w.WriteString(successHeader + payload); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondError(msg string) error {
	if _, err := tc.w.WriteString(errorHeader + msg); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
