package opc

import (
	"bufio"
	"io"
)

// Encoder writes packets to an output stream. Each packet is buffered and
// flushed as one write so header and payload leave together.
type Encoder struct {
	dst io.Writer
	w   *bufio.Writer
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		dst: w,
		w:   bufio.NewWriterSize(w, HeaderLen+MaxPayload),
	}
}

// Encode writes p. Nothing is written if the payload is too large.
func (e *Encoder) Encode(p *Packet) error {
	h, err := p.Header()
	if err != nil {
		return err
	}

	hb := h.Bytes()
	if _, err := e.w.Write(hb[:]); err != nil {
		e.w.Reset(e.dst)
		return err
	}
	if _, err := e.w.Write(p.Data); err != nil {
		e.w.Reset(e.dst)
		return err
	}
	if err := e.w.Flush(); err != nil {
		// bufio.Writer sticks to its first error; drop the partial packet
		// so the next call starts on a fresh header.
		e.w.Reset(e.dst)
		return err
	}
	return nil
}
