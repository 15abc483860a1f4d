package server

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	diag "github.com/coreman2200/arcaluminis-opc/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-opc/internal/frame"
	"github.com/coreman2200/arcaluminis-opc/internal/metrics"
	"github.com/coreman2200/arcaluminis-opc/internal/output"
	"github.com/coreman2200/arcaluminis-opc/internal/pattern"
)

// State owns the render loop: it paints the active pattern into the frame
// buffer, hands the tick to the output and mirrors the result to websocket
// clients. Output failures never stop the loop.
type State struct {
	mu             sync.RWMutex
	buf            *frame.Buffer
	out            output.Output
	fps            int
	runner         *pattern.Runner
	defaultPattern string
	scratch        *image.NRGBA

	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	lastDiag    string

	metrics *metrics.Collector
	log     zerolog.Logger
}

// Option configures a State.
type Option func(*State)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *State) { s.log = l }
}

// WithMetrics records every tick on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *State) { s.metrics = c }
}

// WithPattern sets the pattern the loop starts with and returns to after a
// finite pattern completes.
func WithPattern(name string) Option {
	return func(s *State) { s.defaultPattern = name }
}

// NewState builds a loop that renders into buf and hands each frame to out.
func NewState(buf *frame.Buffer, out output.Output, fps int, opts ...Option) *State {
	s := &State{
		buf:            buf,
		out:            out,
		fps:            max(1, fps),
		defaultPattern: string(pattern.Rainbow),
		scratch:        image.NewNRGBA(buf.Bounds()),
		startTime:      time.Now(),
		clients:        map[*websocket.Conn]bool{},
		diagClients:    map[*websocket.Conn]bool{},
		log:            zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	r, err := pattern.New(s.defaultPattern)
	if err != nil {
		s.log.Warn().Err(err).Msg("falling back to rainbow")
		s.defaultPattern = string(pattern.Rainbow)
		r, _ = pattern.New(s.defaultPattern)
	}
	s.runner = r
	return s
}

// Run ticks at the configured FPS until ctx is done. A slow output slows the
// loop down; ticks are never queued.
func (s *State) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()
	s.log.Info().Int("fps", s.fps).Str("pattern", s.defaultPattern).Msg("render loop started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Uint64("frames", s.FrameID()).Msg("render loop stopped")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick renders and sends one frame.
func (s *State) Tick() {
	start := time.Now()

	s.mu.Lock()
	if !s.runner.Step(s.scratch) {
		s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "PATTERN.DONE", Summary: "Pattern complete", Detail: string(s.runner.Kind())})
		s.runner, _ = pattern.New(s.defaultPattern)
		s.runner.Step(s.scratch)
	}
	_ = s.buf.Draw(s.buf.Bounds(), s.scratch, image.Point{})
	s.frameID++
	s.mu.Unlock()

	s.out.Update()

	if s.metrics != nil {
		s.metrics.ObserveFrame(time.Since(start))
	}
	s.broadcastFrame()
	s.checkHealth()
}

func (s *State) FrameID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameID
}

// SetPattern switches the running pattern.
func (s *State) SetPattern(name string) error {
	r, err := pattern.New(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.runner = r
	s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "PATTERN.RUNNING", Summary: "Running pattern", Detail: name})
	s.mu.Unlock()
	s.log.Info().Str("pattern", name).Msg("pattern changed")
	return nil
}

func (s *State) Pattern() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return string(s.runner.Kind())
}

// checkHealth publishes output diagnostics when they change.
func (s *State) checkHealth() {
	ds := diag.FromHealth(output.Snapshot(s.out))
	key := ""
	for _, d := range ds {
		key += d.Code + ";"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.lastDiag {
		return
	}
	s.lastDiag = key
	for _, d := range ds {
		s.pushDiag(d)
	}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.sendTopology(conn)

	go s.drain(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	ds := diag.FromHealth(output.Snapshot(s.out))
	for _, d := range ds {
		b, _ := json.Marshal(d)
		conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}
	s.mu.Unlock()

	go s.drain(conn, s.diagClients)
}

// drain reads until the client goes away, then forgets it.
func (s *State) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h := output.Snapshot(s.out)
	p := s.buf.Panel()

	s.mu.RLock()
	resp := map[string]any{
		"frame_id":    s.frameID,
		"uptime_s":    time.Since(s.startTime).Seconds(),
		"count":       p.Count(),
		"width":       p.Width,
		"height":      p.Height,
		"fps":         s.fps,
		"brightness":  s.buf.Brightness(),
		"pattern":     string(s.runner.Kind()),
		"output":      h,
		"diagnostics": diag.FromHealth(h),
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) sendTopology(conn *websocket.Conn) {
	p := s.buf.Panel()
	top := map[string]any{
		"width":      p.Width,
		"height":     p.Height,
		"serpentine": p.Serpentine,
		"status":     s.out.ConnectionStatus(),
	}
	b, _ := json.Marshal(top)
	s.mu.Lock()
	defer s.mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

type framePayload struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (s *State) broadcastFrame() {
	im := s.buf.Image()
	rgb := make([]byte, 0, len(im.Pix)/4*3)
	for i := 0; i+3 < len(im.Pix); i += 4 {
		rgb = append(rgb, im.Pix[i], im.Pix[i+1], im.Pix[i+2])
	}

	// Lock, not RLock: gorilla connections allow one concurrent writer.
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return
	}
	b, _ := json.Marshal(framePayload{T: time.Now().UnixNano(), FrameID: s.frameID, RGB: rgb})
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			s.log.Debug().Err(err).Msg("write frame")
		}
	}
}

// pushDiag must be called with s.mu held.
func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}
