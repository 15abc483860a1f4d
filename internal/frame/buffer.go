// Package frame holds the pixel surface renderers draw into and outputs
// read from.
package frame

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"periph.io/x/conn/v3/display"

	ledcolor "github.com/coreman2200/arcaluminis-opc/internal/color"
	"github.com/coreman2200/arcaluminis-opc/internal/layout"
)

var _ display.Drawer = (*Buffer)(nil)

// Buffer is a frame for one panel. Renderers draw into it like any periph
// display; outputs read it back in wire order. Safe for concurrent use.
type Buffer struct {
	mu         sync.Mutex
	panel      layout.Panel
	img        *image.NRGBA
	brightness float64
}

// New returns a black buffer sized for p at full brightness.
func New(p layout.Panel) *Buffer {
	return &Buffer{
		panel:      p,
		img:        image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height)),
		brightness: 1,
	}
}

func (b *Buffer) String() string {
	return fmt.Sprintf("framebuffer{%dx%d}", b.panel.Width, b.panel.Height)
}

// Halt blanks the buffer.
func (b *Buffer) Halt() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.img.Pix {
		b.img.Pix[i] = 0
	}
	return nil
}

func (b *Buffer) ColorModel() color.Model {
	return color.NRGBAModel
}

func (b *Buffer) Bounds() image.Rectangle {
	return b.img.Bounds()
}

// Draw copies src into r. Pixels outside the panel are dropped.
func (b *Buffer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	draw.Draw(b.img, r.Intersect(b.img.Bounds()), src, sp, draw.Src)
	return nil
}

// SetBrightness scales every pixel read by TransformedBuffer, 0..1.
func (b *Buffer) SetBrightness(v float64) {
	b.mu.Lock()
	b.brightness = clamp(v, 0, 1)
	b.mu.Unlock()
}

func (b *Buffer) Brightness() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.brightness
}

// Panel returns the panel geometry.
func (b *Buffer) Panel() layout.Panel {
	return b.panel
}

// TransformedBuffer returns a copy of the frame in wire order with
// brightness applied.
func (b *Buffer) TransformedBuffer() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]uint32, b.panel.Count())
	for y := 0; y < b.panel.Height; y++ {
		for x := 0; x < b.panel.Width; x++ {
			px := ledcolor.FromColor(b.img.NRGBAAt(x, y))
			out[b.panel.Index(x, y)] = ledcolor.Scale(px, b.brightness)
		}
	}
	return out
}

// Image returns a copy of the frame in raster order, without brightness.
func (b *Buffer) Image() *image.NRGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := image.NewNRGBA(b.img.Bounds())
	copy(cp.Pix, b.img.Pix)
	return cp
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
