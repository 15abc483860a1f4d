// Package pattern generates test and demo frames.
package pattern

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
)

type Kind string

const (
	Rainbow     Kind = "rainbow"
	IndexSweep  Kind = "index_sweep"
	RGBChannels Kind = "rgb_channels"
	White       Kind = "white"
	Black       Kind = "black"
)

var kinds = map[Kind]bool{Rainbow: true, IndexSweep: true, RGBChannels: true, White: true, Black: true}

// holdSteps is how many ticks rgb_channels keeps each channel lit. The
// pattern shows red, green and blue once and then completes.
const holdSteps = 30

// Names lists the known patterns.
func Names() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

type Runner struct {
	kind Kind
	step int
}

func New(name string) (*Runner, error) {
	k := Kind(name)
	if !kinds[k] {
		return nil, fmt.Errorf("unknown pattern %q", name)
	}
	return &Runner{kind: k}, nil
}

func (r *Runner) Kind() Kind { return r.kind }

// Step paints the next frame into img; returns false when the pattern is
// complete and img was left black.
func (r *Runner) Step(img *image.NRGBA) bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	for i := range img.Pix {
		img.Pix[i] = 0
	}

	switch r.kind {
	case Rainbow:
		phase := float64(r.step) * 0.01
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				u := float64(x) / float64(max(1, w-1))
				v := float64(y) / float64(max(1, h-1))
				hue := math.Mod(u+v+phase, 1.0)
				img.SetNRGBA(b.Min.X+x, b.Min.Y+y, hsv(hue, 1, 1))
			}
		}
	case IndexSweep:
		if r.step >= w*h {
			return false
		}
		img.SetNRGBA(b.Min.X+r.step%w, b.Min.Y+r.step/w, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	case RGBChannels:
		if r.step >= 3*holdSteps {
			return false
		}
		c := color.NRGBA{A: 255}
		switch r.step / holdSteps {
		case 0:
			c.R = 255
		case 1:
			c.G = 255
		case 2:
			c.B = 255
		}
		fill(img, c)
	case White:
		fill(img, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	case Black:
	default:
		return false
	}
	r.step++
	return true
}

func fill(img *image.NRGBA, c color.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func hsv(h, s, v float64) color.NRGBA {
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - f*s)
	t := v * (1.0 - (1.0-f)*s)
	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.NRGBA{R: byte(r * 255), G: byte(g * 255), B: byte(b * 255), A: 255}
}
