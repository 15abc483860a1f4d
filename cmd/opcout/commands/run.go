package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/arcaluminis-opc/internal/config"
	"github.com/coreman2200/arcaluminis-opc/internal/frame"
	"github.com/coreman2200/arcaluminis-opc/internal/led"
	"github.com/coreman2200/arcaluminis-opc/internal/metrics"
	"github.com/coreman2200/arcaluminis-opc/internal/output"
	"github.com/coreman2200/arcaluminis-opc/internal/server"
)

var runFlags struct {
	host        string
	port        int
	driver      string
	format      string
	width       int
	height      int
	serpentine  bool
	fps         int
	brightness  float64
	pattern     string
	addr        string
	spiPort     string
	writeConfig bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "renders frames and streams them to the configured output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		return run(cfg)
	},
}

func init() {
	f := runCmd.Flags()
	d := config.Default()
	f.StringVar(&runFlags.host, "host", d.OPC.Host, "OPC server host")
	f.IntVar(&runFlags.port, "port", d.OPC.Port, "OPC server port")
	f.StringVar(&runFlags.driver, "driver", d.Driver, "output driver: opc | spi | console")
	f.StringVar(&runFlags.format, "color", d.ColorFormat, "pixel byte order (RGB, GRB, ...)")
	f.IntVar(&runFlags.width, "width", d.Panel.Width, "panel width in pixels")
	f.IntVar(&runFlags.height, "height", d.Panel.Height, "panel height in pixels")
	f.BoolVar(&runFlags.serpentine, "serpentine", d.Panel.Serpentine, "odd rows are wired right to left")
	f.IntVar(&runFlags.fps, "fps", d.FPS, "target frames per second")
	f.Float64Var(&runFlags.brightness, "brightness", d.Brightness, "global brightness 0..1")
	f.StringVar(&runFlags.pattern, "pattern", d.Pattern, "start pattern")
	f.StringVar(&runFlags.addr, "addr", d.Addr, "status HTTP listen address, empty disables")
	f.StringVar(&runFlags.spiPort, "spi-port", "", "SPI port for driver=spi, empty picks the first")
	f.BoolVar(&runFlags.writeConfig, "write-config", false, "save the effective config back to --config")
}

// loadConfig reads the config file if there is one; flags set on the
// command line win over it.
func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Warn().Str("path", configPath).Msg("config not found; proceeding with flags")
		cfg = config.Default()
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("host", func() { cfg.OPC.Host = runFlags.host })
	set("port", func() { cfg.OPC.Port = runFlags.port })
	set("driver", func() { cfg.Driver = runFlags.driver })
	set("color", func() { cfg.ColorFormat = runFlags.format })
	set("width", func() { cfg.Panel.Width = runFlags.width })
	set("height", func() { cfg.Panel.Height = runFlags.height })
	set("serpentine", func() { cfg.Panel.Serpentine = runFlags.serpentine })
	set("fps", func() { cfg.FPS = runFlags.fps })
	set("brightness", func() { cfg.Brightness = runFlags.brightness })
	set("pattern", func() { cfg.Pattern = runFlags.pattern })
	set("addr", func() { cfg.Addr = runFlags.addr })
	set("spi-port", func() { cfg.SPI.Port = runFlags.spiPort })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if runFlags.writeConfig {
		if err := config.Save(configPath, cfg); err != nil {
			log.Warn().Err(err).Str("path", configPath).Msg("config save failed")
		}
	}
	return cfg, nil
}

func openOutput(ctx context.Context, cfg *config.Config, buf *frame.Buffer) output.Output {
	switch cfg.Driver {
	case config.DriverSPI:
		m, err := led.NewSPI(cfg.SPI.Port, cfg.Layout().Count(), buf, log.Logger)
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("port", cfg.SPI.Port).
				Msg("SPI init failed; falling back to console")
			return led.NewConsole(buf, log.Logger)
		}
		return m
	case config.DriverConsole:
		return led.NewConsole(buf, log.Logger)
	default:
		d := output.NewOPCDevice(ctx, cfg.OPC, buf,
			output.WithLogger(log.Logger),
			output.WithFormat(cfg.Format()),
		)
		if !d.IsConnected() {
			log.Warn().Str("status", d.ConnectionStatus()).Msg("OPC output offline; rendering headless")
		}
		return d
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	buf := frame.New(cfg.Layout())
	buf.SetBrightness(cfg.Brightness)

	out := openOutput(ctx, cfg, buf)
	defer out.Close()

	// A write stuck on an unresponsive device keeps the loop from seeing
	// ctx, so close the output from here. stop restores default signal
	// handling and a second Ctrl-C kills the process.
	go func() {
		<-ctx.Done()
		stop()
		out.Close()
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	state := server.NewState(buf, out, cfg.FPS,
		server.WithLogger(log.Logger),
		server.WithMetrics(metrics.New(out, reg)),
		server.WithPattern(cfg.Pattern),
	)

	var srv *http.Server
	if cfg.Addr != "" {
		srv = &http.Server{
			Addr:         cfg.Addr,
			Handler:      state.Router(reg),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.Addr).Str("driver", cfg.Driver).Msg("HTTP server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server crashed")
				stop()
			}
		}()
	}

	state.Run(ctx)
	log.Info().Msg("shutting down")

	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}
	return nil
}
