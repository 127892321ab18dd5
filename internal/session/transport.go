package session

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
)

// OpenFunc acquires the character-stream transport. Implementations must
// release any partially-acquired handles before returning an error.
type OpenFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// Opener builds an OpenFunc from a transport DSN. Supported forms:
//
//	tcp://host:port      dialed TCP stream
//	file:///dev/ttyACM0  already-configured serial device opened read/write
func Opener(dsn string) (OpenFunc, error) {
	switch {
	case strings.HasPrefix(dsn, "tcp://"):
		addr := strings.TrimPrefix(dsn, "tcp://")
		if addr == "" {
			return nil, fmt.Errorf("transport dsn %q has no address", dsn)
		}
		return func(ctx context.Context) (io.ReadWriteCloser, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		}, nil
	case strings.HasPrefix(dsn, "file://"):
		path := strings.TrimPrefix(dsn, "file://")
		if path == "" {
			return nil, fmt.Errorf("transport dsn %q has no path", dsn)
		}
		return func(ctx context.Context) (io.ReadWriteCloser, error) {
			return os.OpenFile(path, os.O_RDWR, 0)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported transport dsn %q", dsn)
	}
}
