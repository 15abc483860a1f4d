package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutput struct {
	connected bool
	errors    uint64
}

func (f *fakeOutput) Update()                        {}
func (f *fakeOutput) IsSupportConnectionState() bool { return true }
func (f *fakeOutput) IsConnected() bool              { return f.connected }
func (f *fakeOutput) ConnectionStatus() string       { return "" }
func (f *fakeOutput) ErrorCounter() uint64           { return f.errors }
func (f *fakeOutput) Close()                         {}

func TestCollectorReadsOutput(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := &fakeOutput{connected: true}
	c := New(o, reg, WithNamespace("test"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.connected))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.errors))

	o.connected = false
	o.errors = 4
	assert.Equal(t, 0.0, testutil.ToFloat64(c.connected))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.errors))

	c.ObserveFrame(5 * time.Millisecond)
	c.ObserveFrame(7 * time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.frames))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, n := range []string{"test_output_connected", "test_output_errors_total", "test_frames_total", "test_frame_duration_seconds"} {
		assert.True(t, names[n], "missing %s", n)
	}
}
