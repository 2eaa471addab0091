package hostlink

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeRange(t *testing.T) Range {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback unavailable: %v", err)
	}
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())
	return Range{Start: port, End: port}
}

func startServer(t *testing.T, ctx context.Context) (Server, Range) {
	t.Helper()
	r := freeRange(t)
	srv := NewServer(r)
	if err := srv.Start(ctx); err != nil {
		t.Skipf("tcp loopback unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv, r
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		line    string
		want    Request
		wantErr bool
	}{
		{"PING\n", Request{Command: CmdPing}, false},
		{"save\r\n", Request{Command: CmdSave}, false},
		{"HIDE", Request{Command: CmdHide}, false},
		{"STATUS\n", Request{Command: CmdStatus}, false},
		{"PROJECT proj-7\n", Request{Command: CmdProject, Arg: "proj-7"}, false},
		{"PROJECT\n", Request{}, true},
		{"STDOUT\n", Request{}, true},
		{"", Request{}, true},
	}
	for _, tt := range tests {
		got, err := ParseRequest(tt.line)
		if tt.wantErr {
			assert.Error(t, err, tt.line)
			continue
		}
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got)
		roundTrip, err := ParseRequest(got.Line())
		require.NoError(t, err)
		assert.Equal(t, got, roundTrip)
	}
}

func TestRangeNormalized(t *testing.T) {
	assert.Equal(t, DefaultRange(), Range{}.Normalized())
	assert.Equal(t, Range{Start: 1024, End: 2000}, Range{Start: 80, End: 2000}.Normalized())
	assert.Equal(t, Range{Start: 50000, End: 50010}, Range{Start: 50010, End: 50000}.Normalized())
	assert.Equal(t, 65535, Range{Start: 60000, End: 70000}.Normalized().End)
}

func TestServerClientRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv, r := startServer(t, ctx)

	port, ok := DetectResidentPort(ctx, r)
	require.True(t, ok)
	assert.Equal(t, srv.Port(), port)

	type result struct {
		found   bool
		payload string
		err     error
	}
	done := make(chan result, 1)
	go func() {
		found, payload, err := NewClient(r).Send(ctx, Request{Command: CmdProject, Arg: "p1"})
		done <- result{found, payload, err}
	}()

	conn, err := srv.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, Request{Command: CmdProject, Arg: "p1"}, conn.Request())
	require.NoError(t, conn.RespondSuccess("project=p1"))
	require.NoError(t, conn.Close())

	res := <-done
	require.NoError(t, res.err)
	assert.True(t, res.found)
	assert.Equal(t, "project=p1", res.payload)
}

func TestServerErrorResponse(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv, r := startServer(t, ctx)

	done := make(chan error, 1)
	go func() {
		_, _, err := NewClient(r).Send(ctx, Request{Command: CmdSave})
		done <- err
	}()

	conn, err := srv.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.RespondError("NoProject: no active project"))
	require.NoError(t, conn.Close())

	err = <-done
	var re *RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "NoProject: no active project", re.Message)
}

func TestSecondServerCannotBind(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, r := startServer(t, ctx)

	second := NewServer(r)
	assert.Error(t, second.Start(ctx))
}

func TestClientWithoutResident(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	found, _, err := NewClient(freeRange(t)).Send(ctx, Request{Command: CmdStatus})
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestPingHandledByServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, r := startServer(t, ctx)
	found, payload, err := NewClient(r).Send(ctx, Request{Command: CmdPing})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "PONG", payload)
}

func TestNextAfterClose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv, _ := startServer(t, ctx)
	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())
	_, err := srv.Next(ctx)
	assert.ErrorIs(t, err, net.ErrClosed)
}
