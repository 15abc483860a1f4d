// Package color packs pixels into the 0xRRGGBB words used by frame buffers
// and reduces them to 24 bit byte streams in the order a controller expects.
package color

import (
	"fmt"
	"image/color"
	"strings"
)

const (
	RedOffset   uint8 = 0x10
	GreenOffset uint8 = 0x08
	BlueOffset  uint8 = 0x0
)

// Format is the byte order of one pixel on the wire.
type Format string

const (
	RGB Format = "RGB"
	RBG Format = "RBG"
	BRG Format = "BRG"
	BGR Format = "BGR"
	GBR Format = "GBR"
	GRB Format = "GRB"
)

// Formats lists every supported order.
var Formats = []Format{RGB, RBG, BRG, BGR, GBR, GRB}

// ParseFormat accepts any case. An empty string yields RGB.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return RGB, nil
	}
	f := Format(strings.ToUpper(s))
	for _, v := range Formats {
		if v == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown color format %q", s)
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & mask) >> off)
}

// Pack builds a pixel word from its channels.
func Pack(r, g, b uint8) uint32 {
	return uint32(r)<<RedOffset | uint32(g)<<GreenOffset | uint32(b)<<BlueOffset
}

// Unpack splits a pixel word.
func Unpack(px uint32) (r, g, b uint8) {
	return getcolor(px, RedOffset), getcolor(px, GreenOffset), getcolor(px, BlueOffset)
}

// FromColor converts any color to a pixel word, dropping alpha after
// premultiplication.
func FromColor(c color.Color) uint32 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	a := uint32(n.A)
	return Pack(uint8(uint32(n.R)*a/255), uint8(uint32(n.G)*a/255), uint8(uint32(n.B)*a/255))
}

// ToNRGBA is the inverse of FromColor for opaque pixels.
func ToNRGBA(px uint32) color.NRGBA {
	r, g, b := Unpack(px)
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Scale multiplies every channel by s, clamped to [0,1].
func Scale(px uint32, s float64) uint32 {
	if s >= 1 {
		return px
	}
	if s <= 0 {
		return 0
	}
	r, g, b := Unpack(px)
	return Pack(uint8(float64(r)*s), uint8(float64(g)*s), uint8(float64(b)*s))
}

// ConvertBufferTo24bit returns three bytes per pixel in the order f.
// Unknown formats fall back to RGB.
func ConvertBufferTo24bit(frame []uint32, f Format) []byte {
	out := make([]byte, len(frame)*3)
	for i, px := range frame {
		r, g, b := Unpack(px)
		o := out[i*3 : i*3+3]
		switch f {
		case RBG:
			o[0], o[1], o[2] = r, b, g
		case BRG:
			o[0], o[1], o[2] = b, r, g
		case BGR:
			o[0], o[1], o[2] = b, g, r
		case GBR:
			o[0], o[1], o[2] = g, b, r
		case GRB:
			o[0], o[1], o[2] = g, r, b
		default:
			o[0], o[1], o[2] = r, g, b
		}
	}
	return out
}
