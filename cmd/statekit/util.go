package main

import (
	"io"
	"log/slog"
	"net"
	"strconv"

	"github.com/vango-dev/statekit/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, errors.New("E301").WithSubject(addr).Wrap(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, errors.New("E301").
			WithSubject(addr).
			WithDetail("The port must be a number between 0 and 65535.")
	}
	return host, port, nil
}
