package executor

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/leapstack-labs/kudusql/pkg/core"
)

var transportMessages = []string{
	"connection closed",
	"connection reset",
	"broken pipe",
	"use of closed network connection",
}

// Classify sorts a client error into the adapter taxonomy: connection
// failures become *core.TransportError and everything else the engine
// reports becomes *core.EngineError. Context cancellation and already
// classified errors pass through unchanged.
func Classify(sqlText string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrTransport) || errors.Is(err, core.ErrNonTransientEngine) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if IsTransport(err) {
		return &core.TransportError{Err: err}
	}
	return &core.EngineError{SQL: sqlText, Err: err}
}

// IsTransport reports whether err signals a broken connection.
func IsTransport(err error) bool {
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transportMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
