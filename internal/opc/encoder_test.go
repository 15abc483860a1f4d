package opc

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingWriter records every Write call it receives.
type countingWriter struct {
	bytes.Buffer
	calls int
	fail  error
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.fail != nil {
		return 0, w.fail
	}
	return w.Buffer.Write(p)
}

func TestEncodeSingleWrite(t *testing.T) {
	w := &countingWriter{}
	enc := NewEncoder(w)

	require.NoError(t, enc.Encode(NewPixelPacket([]byte{255, 0, 0, 0, 255, 0})))
	assert.Equal(t, 1, w.calls, "header and payload should be flushed together")
	assert.Equal(t, []byte{0, 0, 0, 6, 255, 0, 0, 0, 255, 0}, w.Bytes())
}

func TestEncodeRecoversAfterWriteError(t *testing.T) {
	w := &countingWriter{fail: errors.New("broken pipe")}
	enc := NewEncoder(w)

	assert.Error(t, enc.Encode(NewPixelPacket([]byte{1, 2, 3})))

	w.fail = nil
	require.NoError(t, enc.Encode(NewPixelPacket([]byte{4, 5, 6})))
	assert.Equal(t, []byte{0, 0, 0, 3, 4, 5, 6}, w.Bytes())
}

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	frames := [][]byte{{}, {9, 8, 7}, bytes.Repeat([]byte{0x42}, 600)}
	for _, f := range frames {
		require.NoError(t, enc.Encode(NewPixelPacket(f)))
	}

	dec := NewDecoder(&buf)
	p := &Packet{}
	for _, f := range frames {
		require.NoError(t, dec.Decode(p))
		assert.Equal(t, BroadcastChannel, p.Channel)
		assert.Equal(t, CmdSetPixelColors, p.Command)
		assert.Equal(t, len(f), len(p.Data))
		assert.True(t, bytes.Equal(f, p.Data))
	}
	assert.Equal(t, io.EOF, dec.Decode(p))
}

func TestDecodeTruncatedPayload(t *testing.T) {
	dec := NewDecoder(bytes.NewReader([]byte{0, 0, 0, 6, 1, 2}))
	err := dec.Decode(&Packet{})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
