package led

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/nrzled"
)

// fakeDrawer captures the last image drawn.
type fakeDrawer struct {
	last   *image.NRGBA
	halts  int
	bounds image.Rectangle
	fail   error
}

func (d *fakeDrawer) String() string { return "fake" }
func (d *fakeDrawer) Halt() error { d.halts++; return nil }
func (d *fakeDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (d *fakeDrawer) Bounds() image.Rectangle { return d.bounds }
func (d *fakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.fail != nil {
		return d.fail
	}
	d.last = src.(*image.NRGBA)
	return nil
}

type staticSource []uint32

func (s staticSource) TransformedBuffer() []uint32 { return s }

func TestMirrorDrawsStrip(t *testing.T) {
	d := &fakeDrawer{bounds: image.Rect(0, 0, 3, 1)}
	m := NewMirror(d, staticSource{0xFF0000, 0x00FF00, 0x0000FF}, zerolog.Nop())

	m.Update()
	assert.Equal(t, image.Rect(0, 0, 3, 1), d.last.Bounds())
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, d.last.NRGBAAt(1, 0))

	assert.False(t, m.IsSupportConnectionState())
	assert.True(t, m.IsConnected())
	assert.Equal(t, "fake", m.ConnectionStatus())

	m.Close()
	m.Close()
	assert.Equal(t, 1, d.halts)
	assert.False(t, m.IsConnected())
}

func TestMirrorCountsDrawErrors(t *testing.T) {
	var logs bytes.Buffer
	d := &fakeDrawer{fail: errors.New("spi gone")}
	m := NewMirror(d, staticSource{0}, zerolog.New(&logs))

	m.Update()
	m.Update()
	assert.Equal(t, uint64(2), m.ErrorCounter())
	assert.Contains(t, logs.String(), "spi gone")
}

func TestMirrorOverNRZLED(t *testing.T) {
	buf := bytes.Buffer{}
	o := nrzled.Opts{NumPixels: 2, Channels: 3, Freq: 2500 * physic.KiloHertz}
	d, err := nrzled.NewSPI(spitest.NewRecordRaw(&buf), &o)
	if err != nil {
		t.Fatal(err)
	}
	m := NewMirror(d, staticSource{0xFFFFFF, 0}, zerolog.Nop())

	m.Update()
	assert.Zero(t, m.ErrorCounter())
	assert.NotZero(t, buf.Len(), "encoded bits should reach the spi port")
}
