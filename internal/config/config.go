package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Config holds all application configuration values.
type Config struct {
	// IIO device
	IIODeviceDir  string // sysfs directory, e.g. /sys/bus/iio/devices/iio:device0
	IIODeviceNode string // character device, e.g. /dev/iio:device0
	SampleSource  string // "stream", "poll" or "mock"

	// Startup timing
	FlushDuration       time.Duration
	CalibrationDuration time.Duration
	PollInterval        time.Duration

	// Extra multiplier applied to the gyro scale reported by the driver.
	GyroScaleTrim float64

	// Initial filter parameters (clients may change them at runtime)
	FilterKp   float64
	FilterKi   float64
	GyroThresh float64
	AccGThresh float64
	BiasAlpha  float64
	UseDynKp   bool

	// WebSocket / HTTP
	WSListenAddr  string
	WSPublishRate physic.Frequency
	WebStaticDir  string

	// MQTT
	MQTTEnabled          bool
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDDisplay  string
	MQTTPublishRate      physic.Frequency

	// Topics
	TopicAttitude string
	TopicParams   string

	// NMEA serial output (disabled when the port is empty)
	NMEASerialPort string
	NMEABaudRate   uint
	NMEARate       physic.Frequency

	// Display
	DisplayI2CBus         string
	DisplayI2CAddr        uint16
	DisplayUpdateInterval time.Duration

	// Framebuffer
	FBDevice string
	FBWidth  int
	FBHeight int
	FBStride int

	// Logging
	LogLevel string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only settable through InitGlobal.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock for initialization,
//     read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config populated with the values used when a key is
// absent from the config file.
func Default() *Config {
	return &Config{
		IIODeviceDir:        "/sys/bus/iio/devices/iio:device0",
		IIODeviceNode:       "/dev/iio:device0",
		SampleSource:        "stream",
		FlushDuration:       500 * time.Millisecond,
		CalibrationDuration: time.Second,
		PollInterval:        10 * time.Millisecond,
		GyroScaleTrim:       1.0,

		FilterKp:   0.5,
		FilterKi:   0.001,
		GyroThresh: 0.02,
		AccGThresh: 0.06,
		BiasAlpha:  0.002,
		UseDynKp:   true,

		WSListenAddr:  ":8765",
		WSPublishRate: 30 * physic.Hertz,
		WebStaticDir:  "web",

		MQTTEnabled:          false,
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "attitude-producer",
		MQTTClientIDConsole:  "attitude-console",
		MQTTClientIDDisplay:  "attitude-display",
		MQTTPublishRate:      10 * physic.Hertz,

		TopicAttitude: "attitude/snapshot",
		TopicParams:   "attitude/params",

		NMEABaudRate: 9600,
		NMEARate:     5 * physic.Hertz,

		DisplayI2CBus:         "",
		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 200 * time.Millisecond,

		FBDevice: "/dev/fb0",
		FBWidth:  128,
		FBHeight: 64,
		FBStride: 512,

		LogLevel: "info",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// IIO device
	case "IIO_DEVICE_DIR":
		c.IIODeviceDir = value
	case "IIO_DEVICE_NODE":
		c.IIODeviceNode = value
	case "SAMPLE_SOURCE":
		switch value {
		case "stream", "poll", "mock":
			c.SampleSource = value
		default:
			return fmt.Errorf("SAMPLE_SOURCE must be stream, poll or mock, got %q", value)
		}

	// Startup timing
	case "FLUSH_DURATION_MS":
		c.FlushDuration, err = parseMillis(key, value)
	case "CALIBRATION_DURATION_MS":
		c.CalibrationDuration, err = parseMillis(key, value)
	case "POLL_INTERVAL_MS":
		c.PollInterval, err = parseMillis(key, value)
	case "GYRO_SCALE_TRIM":
		c.GyroScaleTrim, err = parseFloatRange(key, value, 0.001, 1000)

	// Filter parameters
	case "FILTER_KP":
		c.FilterKp, err = parseFloatRange(key, value, 0, 20)
	case "FILTER_KI":
		c.FilterKi, err = parseFloatRange(key, value, 0, 5)
	case "GYRO_THRESH":
		c.GyroThresh, err = parseFloatRange(key, value, 0, 10)
	case "ACC_G_THRESH":
		c.AccGThresh, err = parseFloatRange(key, value, 0, 1)
	case "BIAS_ALPHA":
		c.BiasAlpha, err = parseFloatRange(key, value, 0, 1)
	case "USE_DYN_KP":
		c.UseDynKp, err = parseBool(key, value)

	// WebSocket / HTTP
	case "WS_LISTEN_ADDR":
		c.WSListenAddr = value
	case "WS_PUBLISH_RATE":
		c.WSPublishRate, err = parseRate(key, value)
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// MQTT
	case "MQTT_ENABLED":
		c.MQTTEnabled, err = parseBool(key, value)
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_PUBLISH_RATE":
		c.MQTTPublishRate, err = parseRate(key, value)

	// Topics
	case "TOPIC_ATTITUDE":
		c.TopicAttitude = value
	case "TOPIC_PARAMS":
		c.TopicParams = value

	// NMEA
	case "NMEA_SERIAL_PORT":
		c.NMEASerialPort = value
	case "NMEA_BAUD_RATE":
		rate, perr := strconv.ParseUint(value, 10, 32)
		if perr != nil {
			return fmt.Errorf("invalid NMEA_BAUD_RATE %q: %w", value, perr)
		}
		c.NMEABaudRate = uint(rate)
	case "NMEA_RATE":
		c.NMEARate, err = parseRate(key, value)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, perr)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseMillis(key, value)

	// Framebuffer
	case "FB_DEVICE":
		c.FBDevice = value
	case "FB_WIDTH":
		c.FBWidth, err = parsePositiveInt(key, value)
	case "FB_HEIGHT":
		c.FBHeight, err = parsePositiveInt(key, value)
	case "FB_STRIDE":
		c.FBStride, err = parsePositiveInt(key, value)

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.SampleSource != "mock" && c.IIODeviceDir == "" {
		return fmt.Errorf("IIO_DEVICE_DIR is required")
	}
	if c.SampleSource == "stream" && c.IIODeviceNode == "" {
		return fmt.Errorf("IIO_DEVICE_NODE is required for SAMPLE_SOURCE=stream")
	}
	if c.CalibrationDuration <= 0 {
		return fmt.Errorf("CALIBRATION_DURATION_MS must be positive")
	}
	if c.WSPublishRate <= 0 {
		return fmt.Errorf("WS_PUBLISH_RATE must be positive")
	}
	if c.MQTTEnabled {
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required when MQTT_ENABLED=true")
		}
		if c.TopicAttitude == "" {
			return fmt.Errorf("TOPIC_ATTITUDE is required when MQTT_ENABLED=true")
		}
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive")
	}
	if c.FBStride < c.FBWidth*4 {
		return fmt.Errorf("FB_STRIDE (%d) must hold FB_WIDTH*4 (%d) bytes", c.FBStride, c.FBWidth*4)
	}
	return nil
}

func parseMillis(key, value string) (time.Duration, error) {
	ms, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", key, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseFloatRange(key, value string, lo, hi float64) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if f < lo || f > hi {
		return 0, fmt.Errorf("%s must be %g-%g, got %g", key, lo, hi, f)
	}
	return f, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func parsePositiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

// parseRate accepts periph frequency strings such as "30Hz" or "1.5kHz".
func parseRate(key, value string) (physic.Frequency, error) {
	var f physic.Frequency
	if err := f.Set(value); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, f)
	}
	return f, nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
