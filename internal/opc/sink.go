package opc

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Handler receives every packet decoded by a Sink. p is reused after the
// call returns.
type Handler func(remote net.Addr, p *Packet)

// Sink is a minimal OPC server. It stands in for an LED controller when no
// hardware is around.
type Sink struct {
	Handler Handler
	Logger  zerolog.Logger

	wg sync.WaitGroup
}

// Serve accepts connections on ln until ctx is done or ln fails. It closes
// ln and waits for open connections to finish before returning.
func (s *Sink) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var conns sync.Map
	defer func() {
		conns.Range(func(k, _ any) bool {
			k.(net.Conn).Close()
			return true
		})
		s.wg.Wait()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		conns.Store(conn, struct{}{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conns.Delete(conn)
			s.serveConn(conn)
		}()
	}
}

func (s *Sink) serveConn(conn net.Conn) {
	defer conn.Close()

	log := s.Logger.With().Str("remote", conn.RemoteAddr().String()).Logger()
	log.Info().Msg("opc client connected")

	dec := NewDecoder(conn)
	p := &Packet{}
	for {
		if err := dec.Decode(p); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Info().Msg("opc client disconnected")
			} else {
				log.Warn().Err(err).Msg("opc decode failed")
			}
			return
		}
		if s.Handler != nil {
			s.Handler(conn.RemoteAddr(), p)
		}
	}
}
