package opc

import (
	"bytes"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var TestPayloadLengths = []int{0, 1, 3, 12, 255, 256, 1000, 4096, MaxPayload}

func TestHeaderLengthIsBigEndian(t *testing.T) {
	for _, n := range TestPayloadLengths {
		t.Run("len "+strconv.Itoa(n), func(t *testing.T) {
			p := NewPixelPacket(make([]byte, n))
			b, err := AppendPacket(nil, p)
			require.NoError(t, err)

			assert.Len(t, b, HeaderLen+n)
			assert.Equal(t, BroadcastChannel, b[0])
			assert.Equal(t, CmdSetPixelColors, b[1])
			assert.Equal(t, n, int(b[2])<<8|int(b[3]))
		})
	}
}

func TestFourPixelFrame(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	b, err := AppendPacket(nil, NewPixelPacket(payload))
	require.NoError(t, err)

	assert.Equal(t, append([]byte{0, 0, 0, 12}, payload...), b)
}

func TestPayloadTooLarge(t *testing.T) {
	p := NewPixelPacket(make([]byte, MaxPayload+1))

	_, err := p.Header()
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))

	var buf bytes.Buffer
	err = NewEncoder(&buf).Encode(p)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Zero(t, buf.Len(), "nothing must reach the wire")
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]byte{2, 0, 0x01, 0x2C})
	require.NoError(t, err)
	assert.Equal(t, Header{Channel: 2, Command: 0, Length: 300}, h)

	_, err = ParseHeader([]byte{0, 0})
	assert.Error(t, err)
}
