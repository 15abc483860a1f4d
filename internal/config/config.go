package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/arcaluminis-opc/internal/color"
	"github.com/coreman2200/arcaluminis-opc/internal/layout"
	"github.com/coreman2200/arcaluminis-opc/internal/opc"
)

// Output drivers.
const (
	DriverOPC     = "opc"
	DriverSPI     = "spi"
	DriverConsole = "console"
)

// OPC is the remote controller target.
type OPC struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

func (o OPC) OpcIP() string { return o.Host }
func (o OPC) OpcPort() int  { return o.Port }

type Panel struct {
	Width      int  `yaml:"width" toml:"width"`
	Height     int  `yaml:"height" toml:"height"`
	Serpentine bool `yaml:"serpentine" toml:"serpentine"`
}

type SPI struct {
	Port string `yaml:"port" toml:"port"` // e.g. /dev/spidev0.0, empty picks the first
}

type Config struct {
	Driver      string  `yaml:"driver" toml:"driver"` // "opc" | "spi" | "console"
	ColorFormat string  `yaml:"color_format" toml:"color_format"`
	Brightness  float64 `yaml:"brightness" toml:"brightness"`
	FPS         int     `yaml:"fps" toml:"fps"`
	Pattern     string  `yaml:"pattern" toml:"pattern"`
	Addr        string  `yaml:"addr" toml:"addr"` // status HTTP listen address, empty disables

	OPC   OPC   `yaml:"opc" toml:"opc"`
	Panel Panel `yaml:"panel" toml:"panel"`
	SPI   SPI   `yaml:"spi,omitempty" toml:"spi,omitempty"`
}

func Default() *Config {
	return &Config{
		Driver:      DriverOPC,
		ColorFormat: string(color.RGB),
		Brightness:  1,
		FPS:         30,
		Pattern:     "rainbow",
		Addr:        ":8080",
		OPC:         OPC{Host: "127.0.0.1", Port: opc.DefaultPort},
		Panel:       Panel{Width: 8, Height: 8},
	}
}

// Layout returns the panel geometry.
func (c *Config) Layout() layout.Panel {
	return layout.Panel{Width: c.Panel.Width, Height: c.Panel.Height, Serpentine: c.Panel.Serpentine}
}

// Format returns the parsed color format.
func (c *Config) Format() color.Format {
	f, err := color.ParseFormat(c.ColorFormat)
	if err != nil {
		return color.RGB
	}
	return f
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Driver {
	case DriverOPC, DriverSPI, DriverConsole:
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q", c.Driver))
	}
	if c.Driver == DriverOPC {
		if c.OPC.Host == "" {
			errs = append(errs, errors.New("opc.host is required"))
		}
		if c.OPC.Port <= 0 || c.OPC.Port > 65535 {
			errs = append(errs, fmt.Errorf("opc.port %d out of range", c.OPC.Port))
		}
	}
	if _, err := color.ParseFormat(c.ColorFormat); err != nil {
		errs = append(errs, err)
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		errs = append(errs, fmt.Errorf("brightness %v not in [0,1]", c.Brightness))
	}
	if err := c.Layout().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads path on top of Default. Files ending in .toml are TOML,
// anything else is YAML.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if isTOML(path) {
		err = toml.Unmarshal(b, c)
	} else {
		err = yaml.Unmarshal(b, c)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	var (
		b   []byte
		err error
	)
	if isTOML(path) {
		b, err = toml.Marshal(c)
	} else {
		b, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
