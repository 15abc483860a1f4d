package output

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/coreman2200/arcaluminis-opc/internal/color"
	"github.com/coreman2200/arcaluminis-opc/internal/opc"
)

const notConnected = "Not connected!"

// Dialer opens the device socket.
type Dialer interface {
	DialContext(ctx context.Context, host string, port int) (net.Conn, error)
}

// OPCDevice streams frames to an Open Pixel Control server over a single TCP
// connection. The connection is attempted once, in NewOPCDevice; a device
// that failed to connect stays offline until it is replaced.
//
// Send errors do not take the device offline, every tick tries again.
type OPCDevice struct {
	host   string
	port   int
	format color.Format
	src    Source
	dialer Dialer
	log    zerolog.Logger

	// mu serializes socket writes.
	mu   sync.Mutex
	conn net.Conn
	enc  *opc.Encoder

	state   atomic.Int32
	errors  atomic.Uint64
	lastErr atomic.Value // string
}

// Option configures an OPCDevice.
type Option func(*OPCDevice)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(d *OPCDevice) { d.log = l }
}

// WithFormat sets the byte order pixels are sent in. The default is RGB.
func WithFormat(f color.Format) Option {
	return func(d *OPCDevice) { d.format = f }
}

// WithDialer replaces the TCP dialer.
func WithDialer(dl Dialer) Option {
	return func(d *OPCDevice) { d.dialer = dl }
}

// NewOPCDevice connects to the target from cfg. It always returns a device;
// check IsConnected to find out whether the connection was made.
func NewOPCDevice(ctx context.Context, cfg Provider, src Source, opts ...Option) *OPCDevice {
	d := &OPCDevice{
		host:   cfg.OpcIP(),
		port:   cfg.OpcPort(),
		format: color.RGB,
		src:    src,
		dialer: &opc.Dialer{},
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(d)
	}
	d.log = d.log.With().Str("device", "opc").Str("target", d.addr()).Logger()

	conn, err := d.dialer.DialContext(ctx, d.host, d.port)
	if err != nil {
		d.state.Store(int32(Failed))
		d.lastErr.Store(err.Error())
		d.log.Warn().Err(err).Msg("failed to initialize Open Pixel Control device")
		return d
	}

	d.conn = conn
	d.enc = opc.NewEncoder(conn)
	d.state.Store(int32(Ready))
	d.log.Info().Str("format", string(d.format)).Msg("Open Pixel Control device initialized")
	return d
}

func (d *OPCDevice) addr() string {
	return net.JoinHostPort(d.host, strconv.Itoa(d.port))
}

// State returns the connection state.
func (d *OPCDevice) State() State {
	return State(d.state.Load())
}

// Update converts the source frame and sends it. Nothing happens unless the
// device is connected.
func (d *OPCDevice) Update() {
	if !d.IsConnected() {
		return
	}
	d.Send(color.ConvertBufferTo24bit(d.src.TransformedBuffer(), d.format))
}

// Send writes rgb as one set-pixel-colors packet on the broadcast channel.
// A failed write bumps the error counter and leaves the device connected.
func (d *OPCDevice) Send(rgb []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.State() != Ready {
		return
	}

	if err := d.enc.Encode(opc.NewPixelPacket(rgb)); err != nil {
		n := d.errors.Add(1)
		d.lastErr.Store(err.Error())
		d.log.Warn().Err(err).Uint64("errors", n).Int("bytes", len(rgb)).
			Msg("failed to send Open Pixel Control TCP data")
	}
}

func (d *OPCDevice) IsSupportConnectionState() bool {
	return true
}

func (d *OPCDevice) IsConnected() bool {
	return d.State() == Ready
}

func (d *OPCDevice) ConnectionStatus() string {
	if d.IsConnected() {
		return "Target IP " + d.host + ":" + strconv.Itoa(d.port)
	}
	return notConnected
}

func (d *OPCDevice) ErrorCounter() uint64 {
	return d.errors.Load()
}

// Close shuts the socket down. A failing close is logged and otherwise
// ignored; the device is closed either way.
//
// Close does not take mu, so it also unblocks a Send stuck writing to a peer
// that stopped reading. That write fails and is counted like any other.
func (d *OPCDevice) Close() {
	if !d.state.CompareAndSwap(int32(Ready), int32(Closed)) {
		return
	}
	if err := d.conn.Close(); err != nil {
		d.log.Warn().Err(err).Msg("failed to close Open Pixel Control TCP socket")
	}
	d.log.Info().Msg("Open Pixel Control device closed")
}

func (d *OPCDevice) Health() Health {
	h := Health{
		Device:            "opc",
		State:             d.State().String(),
		SupportsConnState: true,
		Connected:         d.IsConnected(),
		Status:            d.ConnectionStatus(),
		Errors:            d.ErrorCounter(),
	}
	if s, ok := d.lastErr.Load().(string); ok {
		h.LastError = s
	}
	return h
}
