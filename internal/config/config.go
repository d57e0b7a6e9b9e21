package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GPSD    GPSDConfig    `yaml:"gpsd"`
	AutoRX  AutoRXConfig  `yaml:"autorx"`
	Touch   TouchConfig   `yaml:"touch"`
	Display DisplayConfig `yaml:"display"`
	Fusion  FusionConfig  `yaml:"fusion"`
}

type GPSDConfig struct {
	Addr        string        `yaml:"addr"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type AutoRXConfig struct {
	Listen string `yaml:"listen"`
}

type TouchConfig struct {
	// Driver selects the touch backend: "xpt2046" or "none".
	Driver string `yaml:"driver"`

	// SPIDevice is the periph.io SPI port name, e.g. "SPI0.1".
	SPIDevice string `yaml:"spi_device"`
	// CSPin is the BCM GPIO driving chip select (active low).
	CSPin int `yaml:"cs_pin"`
	// IRQPin is the BCM GPIO wired to the controller's PENIRQ line.
	// Zero disables the interrupt path and the sampler polls instead.
	IRQPin int `yaml:"irq_pin"`

	// Raw ADC extents from calibration. Readings outside these bounds are
	// treated as no-touch noise.
	MinX int `yaml:"min_x"`
	MaxX int `yaml:"max_x"`
	MinY int `yaml:"min_y"`
	MaxY int `yaml:"max_y"`
}

type DisplayConfig struct {
	// Driver selects the render backend: "ili9341" or "log".
	Driver string `yaml:"driver"`

	SPIDevice string `yaml:"spi_device"`
	DCPin     int    `yaml:"dc_pin"`
	ResetPin  int    `yaml:"reset_pin"`
	Flip      bool   `yaml:"flip"`
}

type FusionConfig struct {
	// Tick is the display update period.
	Tick time.Duration `yaml:"tick"`
	// StartupWait bounds how long main waits for first GPSD data before
	// giving up and exiting.
	StartupWait time.Duration `yaml:"startup_wait"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.GPSD.Addr == "" {
		cfg.GPSD.Addr = "127.0.0.1:2947"
	}
	if cfg.GPSD.DialTimeout <= 0 {
		cfg.GPSD.DialTimeout = 2 * time.Second
	}

	if cfg.AutoRX.Listen == "" {
		cfg.AutoRX.Listen = ":55672"
	}

	switch cfg.Touch.Driver {
	case "", "none":
		cfg.Touch.Driver = "none"
	case "xpt2046":
		if cfg.Touch.SPIDevice == "" {
			return Config{}, fmt.Errorf("touch.spi_device is required for touch.driver=xpt2046")
		}
		if cfg.Touch.CSPin <= 0 {
			return Config{}, fmt.Errorf("touch.cs_pin is required for touch.driver=xpt2046")
		}
	default:
		return Config{}, fmt.Errorf("unsupported touch.driver %q", cfg.Touch.Driver)
	}

	// XPT2046 calibration defaults for the common 2.8" ILI9341 panels.
	if cfg.Touch.MinX == 0 {
		cfg.Touch.MinX = 100
	}
	if cfg.Touch.MaxX == 0 {
		cfg.Touch.MaxX = 1962
	}
	if cfg.Touch.MinY == 0 {
		cfg.Touch.MinY = 100
	}
	if cfg.Touch.MaxY == 0 {
		cfg.Touch.MaxY = 1900
	}
	if cfg.Touch.MaxX <= cfg.Touch.MinX || cfg.Touch.MaxY <= cfg.Touch.MinY {
		return Config{}, fmt.Errorf("touch calibration extents are inverted")
	}

	switch cfg.Display.Driver {
	case "":
		cfg.Display.Driver = "log"
	case "log":
	case "ili9341":
		if cfg.Display.SPIDevice == "" {
			return Config{}, fmt.Errorf("display.spi_device is required for display.driver=ili9341")
		}
		if cfg.Display.DCPin <= 0 {
			return Config{}, fmt.Errorf("display.dc_pin is required for display.driver=ili9341")
		}
	default:
		return Config{}, fmt.Errorf("unsupported display.driver %q", cfg.Display.Driver)
	}

	if cfg.Fusion.Tick <= 0 {
		cfg.Fusion.Tick = 1 * time.Second
	}
	if cfg.Fusion.StartupWait <= 0 {
		cfg.Fusion.StartupWait = 30 * time.Second
	}

	return cfg, nil
}
