// Package opc implements the Open Pixel Control wire framing used to push
// pixel frames to LED controllers over TCP.
package opc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// BroadcastChannel addresses every strip attached to the controller.
	BroadcastChannel byte = 0
	// CmdSetPixelColors sets all pixel values of the channel.
	CmdSetPixelColors byte = 0

	// HeaderLen is the size of the fixed packet header.
	HeaderLen = 4
	// MaxPayload is the largest payload the 16 bit length field can carry.
	MaxPayload = 0xFFFF

	// DefaultPort is the port fadecandy and most OPC servers listen on.
	DefaultPort = 7890
)

// ErrPayloadTooLarge is returned when a payload does not fit the length field.
// The panel resolution is too big for a single OPC frame.
var ErrPayloadTooLarge = errors.New("opc: payload exceeds 65535 bytes")

// Header is the 4 byte prefix of every packet.
type Header struct {
	Channel byte
	Command byte
	Length  uint16
}

// Packet is a single OPC message.
type Packet struct {
	Channel byte
	Command byte
	Data    []byte
}

// NewPixelPacket returns a broadcast set-pixel-colors packet carrying rgb.
func NewPixelPacket(rgb []byte) *Packet {
	return &Packet{
		Channel: BroadcastChannel,
		Command: CmdSetPixelColors,
		Data:    rgb,
	}
}

// Header builds the header for p.
func (p *Packet) Header() (Header, error) {
	if len(p.Data) > MaxPayload {
		return Header{}, fmt.Errorf("%w: got %d", ErrPayloadTooLarge, len(p.Data))
	}
	return Header{
		Channel: p.Channel,
		Command: p.Command,
		Length:  uint16(len(p.Data)),
	}, nil
}

// Bytes returns the encoded header.
func (h Header) Bytes() [HeaderLen]byte {
	var b [HeaderLen]byte
	b[0] = h.Channel
	b[1] = h.Command
	binary.BigEndian.PutUint16(b[2:4], h.Length)
	return b
}

// ParseHeader decodes a header from the first HeaderLen bytes of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("opc: short header: %d bytes", len(b))
	}
	return Header{
		Channel: b[0],
		Command: b[1],
		Length:  binary.BigEndian.Uint16(b[2:4]),
	}, nil
}

// AppendPacket appends the wire form of p to dst.
func AppendPacket(dst []byte, p *Packet) ([]byte, error) {
	h, err := p.Header()
	if err != nil {
		return dst, err
	}
	hb := h.Bytes()
	dst = append(dst, hb[:]...)
	return append(dst, p.Data...), nil
}

func (p *Packet) String() string {
	return fmt.Sprintf("opc{channel=%d command=%d len=%d}", p.Channel, p.Command, len(p.Data))
}
