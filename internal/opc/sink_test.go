package opc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkReceivesFrames(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu  sync.Mutex
		got [][]byte
	)
	s := &Sink{
		Logger: zerolog.Nop(),
		Handler: func(_ net.Addr, p *Packet) {
			mu.Lock()
			got = append(got, append([]byte(nil), p.Data...))
			mu.Unlock()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	addr := ln.Addr().(*net.TCPAddr)
	var d Dialer
	conn, err := d.DialContext(ctx, addr.IP.String(), addr.Port)
	require.NoError(t, err)
	defer conn.Close()

	enc := NewEncoder(conn)
	require.NoError(t, enc.Encode(NewPixelPacket([]byte{1, 2, 3})))
	require.NoError(t, enc.Encode(NewPixelPacket([]byte{4, 5, 6, 7, 8, 9})))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []byte{1, 2, 3}, got[0])
	assert.Equal(t, []byte{4, 5, 6, 7, 8, 9}, got[1])
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sink did not stop")
	}
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	var d Dialer
	_, err = d.DialContext(context.Background(), "127.0.0.1", port)
	assert.Error(t, err)
}
