// Package led provides local outputs that mirror the frame onto a periph
// display: an SPI attached WS281x strip or the console.
package led

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	ledcolor "github.com/coreman2200/arcaluminis-opc/internal/color"
	"github.com/coreman2200/arcaluminis-opc/internal/output"
)

var _ output.Output = (*Mirror)(nil)

// Mirror pushes frames to a display.Drawer. Local drawers have no link to
// lose, so the mirror reports no connection state.
type Mirror struct {
	drawer display.Drawer
	src    output.Source
	log    zerolog.Logger

	mu     sync.Mutex
	halted bool
	errors atomic.Uint64
}

// NewMirror wraps d.
func NewMirror(d display.Drawer, src output.Source, log zerolog.Logger) *Mirror {
	return &Mirror{
		drawer: d,
		src:    src,
		log:    log.With().Str("device", d.String()).Logger(),
	}
}

// NewConsole mirrors frames as ANSI blocks on stdout.
func NewConsole(src output.Source, log zerolog.Logger) *Mirror {
	return NewMirror(screen.New(100), src, log)
}

// NewSPI opens the SPI port (empty name picks the first one) and drives
// count WS281x pixels through it.
func NewSPI(port string, count int, src output.Source, log zerolog.Logger) (*Mirror, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", port, err)
	}

	opts := nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      2500 * physic.KiloHertz,
	}
	d, err := nrzled.NewSPI(p, &opts)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	d.Halt()
	return NewMirror(d, src, log), nil
}

// Update lays the wire ordered frame out as a single row, the way a strip
// sees it, and draws it.
func (m *Mirror) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.halted {
		return
	}

	px := m.src.TransformedBuffer()
	im := image.NewNRGBA(image.Rect(0, 0, len(px), 1))
	for x, v := range px {
		im.SetNRGBA(x, 0, ledcolor.ToNRGBA(v))
	}
	if err := m.drawer.Draw(m.drawer.Bounds(), im, image.Point{}); err != nil {
		n := m.errors.Add(1)
		m.log.Warn().Err(err).Uint64("errors", n).Msg("draw failed")
	}
}

func (m *Mirror) IsSupportConnectionState() bool { return false }

func (m *Mirror) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.halted
}

func (m *Mirror) ConnectionStatus() string { return m.drawer.String() }

func (m *Mirror) ErrorCounter() uint64 { return m.errors.Load() }

// Close halts the drawer once.
func (m *Mirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.halted {
		return
	}
	m.halted = true
	if err := m.drawer.Halt(); err != nil {
		m.log.Warn().Err(err).Msg("halt failed")
	}
}
