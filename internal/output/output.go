// Package output holds the devices frames are pushed to once per render
// tick. Devices never return errors into the tick: failures are recorded and
// exposed through their connection state and error counter.
package output

// Output is what the render loop drives.
type Output interface {
	// Update sends the current frame. It blocks for as long as the device
	// takes to accept it.
	Update()
	// IsSupportConnectionState reports whether IsConnected means anything
	// for this kind of device.
	IsSupportConnectionState() bool
	IsConnected() bool
	ConnectionStatus() string
	// ErrorCounter is the number of failed sends since the device was created.
	ErrorCounter() uint64
	// Close releases the device. Calling it again is a no-op.
	Close()
}

// Provider supplies the OPC target.
type Provider interface {
	OpcIP() string
	OpcPort() int
}

// Source supplies the frame to send, one packed 0xRRGGBB word per pixel.
type Source interface {
	TransformedBuffer() []uint32
}

// State of a device connection.
type State int32

const (
	Uninitialized State = iota
	Ready
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Health is a point in time snapshot of a device.
type Health struct {
	Device            string `json:"device"`
	State             string `json:"state"`
	SupportsConnState bool   `json:"supports_connection_state"`
	Connected         bool   `json:"connected"`
	Status            string `json:"status"`
	Errors            uint64 `json:"errors"`
	LastError         string `json:"last_error,omitempty"`
}

// Reporter is implemented by outputs that can describe themselves in more
// detail than the Output interface allows.
type Reporter interface {
	Health() Health
}

// Snapshot returns o's health, building a basic one when o is not a Reporter.
func Snapshot(o Output) Health {
	if r, ok := o.(Reporter); ok {
		return r.Health()
	}
	return Health{
		SupportsConnState: o.IsSupportConnectionState(),
		Connected:         o.IsConnected(),
		Status:            o.ConnectionStatus(),
		Errors:            o.ErrorCounter(),
	}
}
