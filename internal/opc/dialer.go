package opc

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// Dialer opens TCP connections to OPC servers. The zero value is ready to
// use and applies no timeout beyond the context.
type Dialer struct {
	d net.Dialer
}

// DialContext connects to host:port with Nagle's algorithm disabled, frames
// are small and must leave on every tick.
func (d *Dialer) DialContext(ctx context.Context, host string, port int) (net.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := d.d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	tc, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("opc: %s is not a tcp connection", addr)
	}
	if err := tc.SetNoDelay(true); err != nil {
		tc.Close()
		return nil, fmt.Errorf("opc: set nodelay: %w", err)
	}
	return tc, nil
}
