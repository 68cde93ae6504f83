// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transport

import (
	"log/slog"
	"net"
	"os"
)

const (
	sdReady    = "READY=1"
	sdStopping = "STOPPING=1"
)

// sdNotify reports a state change to the systemd notify socket.
// Outside of a systemd unit with Type=notify there is no socket and
// the call is a no-op. Failures are logged, never fatal, the server
// keeps serving either way.
func sdNotify(log *slog.Logger, state string) {
	socketAddr := &net.UnixAddr{
		Name: os.Getenv("NOTIFY_SOCKET"),
		Net:  "unixgram",
	}
	if socketAddr.Name == "" {
		return
	}

	conn, err := net.DialUnix(socketAddr.Net, nil, socketAddr)
	if err != nil {
		log.Warn("failed to connect to systemd notify socket", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	_, err = conn.Write([]byte(state + "\n"))
	if err != nil {
		log.Warn("failed to notify systemd", slog.String("error", err.Error()))
	}
}
