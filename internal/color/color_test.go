package color_test

import (
	stdcolor "image/color"
	"strconv"
	"testing"

	. "github.com/coreman2200/arcaluminis-opc/internal/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var TestFormatOrdersChannels = []struct {
	Format Format
	Expect []byte
}{
	{RGB, []byte{0x11, 0x22, 0x33}},
	{RBG, []byte{0x11, 0x33, 0x22}},
	{BRG, []byte{0x33, 0x11, 0x22}},
	{BGR, []byte{0x33, 0x22, 0x11}},
	{GBR, []byte{0x22, 0x33, 0x11}},
	{GRB, []byte{0x22, 0x11, 0x33}},
}

var TestPackIsExpectedWord = []struct {
	R, G, B uint8
	Expect  uint32
}{
	{0x11, 0x22, 0x33, 0x112233},
	{0xFF, 0x00, 0x00, 0xFF0000},
	{0x00, 0x00, 0xFF, 0x0000FF},
	{0xAB, 0x3B, 0x88, 0xAB3B88},
}

func TestPack(t *testing.T) {
	for k, v := range TestPackIsExpectedWord {
		t.Run("Given RGB"+strconv.Itoa(k), func(t *testing.T) {
			px := Pack(v.R, v.G, v.B)
			assert.Equal(t, v.Expect, px)

			r, g, b := Unpack(px)
			assert.Equal(t, []uint8{v.R, v.G, v.B}, []uint8{r, g, b})
		})
	}
}

func TestConvertBufferTo24bit(t *testing.T) {
	for _, v := range TestFormatOrdersChannels {
		t.Run(string(v.Format), func(t *testing.T) {
			out := ConvertBufferTo24bit([]uint32{0x112233, 0x112233}, v.Format)
			assert.Equal(t, append(append([]byte{}, v.Expect...), v.Expect...), out)
		})
	}
}

func TestConvertEmptyFrame(t *testing.T) {
	assert.Empty(t, ConvertBufferTo24bit(nil, RGB))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("grb")
	require.NoError(t, err)
	assert.Equal(t, GRB, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, RGB, f)

	_, err = ParseFormat("RGBW")
	assert.Error(t, err)
}

func TestFromColor(t *testing.T) {
	assert.Equal(t, uint32(0xFF8000), FromColor(stdcolor.NRGBA{R: 255, G: 128, A: 255}))
	assert.Equal(t, uint32(0), FromColor(stdcolor.NRGBA{R: 255, G: 255, B: 255, A: 0}))
}

func TestScale(t *testing.T) {
	assert.Equal(t, uint32(0x7F7F7F), Scale(0xFFFFFF, 0.5))
	assert.Equal(t, uint32(0x123456), Scale(0x123456, 1))
	assert.Equal(t, uint32(0), Scale(0x123456, -1))
}
