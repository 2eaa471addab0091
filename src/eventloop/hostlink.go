package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"

	"papermem-capture/src/hostlink"
	"papermem-capture/src/saveapi"
)

// Serve answers host-link requests until ctx ends or srv is closed. Each
// request is handled on its own goroutine; loop state is only reached through
// the public methods.
func (l *Loop) Serve(ctx context.Context, srv hostlink.Server) {
	for {
		conn, err := srv.Next(ctx)
		if err != nil {
			return
		}
		go l.handleConn(ctx, conn)
	}
}

func (l *Loop) handleConn(ctx context.Context, conn hostlink.Conn) {
	defer conn.Close()
	req := conn.Request()

	payload, err := l.dispatch(ctx, req)
	if err != nil {
		log.Printf("hostlink: %s failed: %v", req.Command, err)
		if rerr := conn.RespondError(errorPayload(err)); rerr != nil {
			log.Printf("hostlink: respond: %v", rerr)
		}
		return
	}
	if rerr := conn.RespondSuccess(payload); rerr != nil {
		log.Printf("hostlink: respond: %v", rerr)
	}
}

func (l *Loop) dispatch(ctx context.Context, req hostlink.Request) (string, error) {
	switch req.Command {
	case hostlink.CmdProject:
		if err := l.SetActiveProject(ctx, req.Arg); err != nil {
			return "", err
		}
		return "project=" + req.Arg, nil
	case hostlink.CmdSave:
		if err := l.Save(ctx); err != nil {
			return "", err
		}
		return "saved", nil
	case hostlink.CmdHide:
		if err := l.Hide(ctx); err != nil {
			return "", err
		}
		return "hidden", nil
	case hostlink.CmdStatus:
		st, err := l.Status(ctx)
		if err != nil {
			return "", err
		}
		return st.String(), nil
	case hostlink.CmdPing:
		return "PONG", nil
	}
	return "", fmt.Errorf("%w: %s", hostlink.ErrUnknownCommand, req.Command)
}

// errorPayload renders err as "<kind>: <message>".
func errorPayload(err error) string {
	var se *saveapi.Error
	if errors.As(err, &se) {
		return fmt.Sprintf("%s: %v", se.Kind, se)
	}
	if errors.Is(err, ErrStopped) {
		return "Stopped: " + err.Error()
	}
	return "Error: " + err.Error()
}
