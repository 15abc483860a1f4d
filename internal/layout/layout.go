package layout

import (
	"errors"
	"fmt"

	"github.com/coreman2200/arcaluminis-opc/internal/opc"
)

// Panel is a rectangular LED matrix. Pixels are addressed row-major from
// the top left corner.
type Panel struct {
	Width  int
	Height int
	// Serpentine wiring: every odd row runs right to left.
	Serpentine bool
}

// Count is the number of pixels on the panel.
func (p Panel) Count() int {
	return p.Width * p.Height
}

// PayloadLen is the size of one 24 bit frame for the panel.
func (p Panel) PayloadLen() int {
	return p.Count() * 3
}

// Index maps x,y -> wire index (0..N-1).
func (p Panel) Index(x, y int) int {
	if p.Serpentine && y%2 == 1 {
		x = p.Width - 1 - x
	}
	return y*p.Width + x
}

// Validate rejects panels that cannot be sent as a single OPC frame.
func (p Panel) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return errors.New("panel dimensions must be positive")
	}
	if n := p.PayloadLen(); n > opc.MaxPayload {
		return fmt.Errorf("panel %dx%d needs %d bytes per frame: %w", p.Width, p.Height, n, opc.ErrPayloadTooLarge)
	}
	return nil
}
