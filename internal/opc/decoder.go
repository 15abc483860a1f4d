package opc

import (
	"bufio"
	"io"
)

// Decoder reads packets from an input stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads the next packet into p. p.Data is reallocated when too small.
// It returns io.EOF only when the stream ends on a packet boundary.
func (d *Decoder) Decode(p *Packet) error {
	var hb [HeaderLen]byte
	if _, err := io.ReadFull(d.r, hb[:]); err != nil {
		return err
	}
	h, err := ParseHeader(hb[:])
	if err != nil {
		return err
	}

	n := int(h.Length)
	if cap(p.Data) < n {
		p.Data = make([]byte, n)
	}
	p.Data = p.Data[:n]
	if _, err := io.ReadFull(d.r, p.Data); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}

	p.Channel = h.Channel
	p.Command = h.Command
	return nil
}
