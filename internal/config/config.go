// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// IMU serial link
	IMUSerialPort   string
	IMUBaudRate     int
	IMUInitBaudRate int  // power-on baud rate used for the init sequence
	IMUSendInit     bool // send the MIP init sequence at startup
	IMUMock         bool // synthesize frames instead of opening the port
	IMUMockRateHz   int
	IMUMockCorrupt  float64 // fraction of mock frames with a bad EF trailer

	// Receive path
	IMUFIFOSize      int
	IMUReadChunk     int
	IMURxTimeoutUS   int
	IMUParseInterval int  // milliseconds
	IMUResync        bool // search each window for the frame header

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicReading string
	TopicFixed   string
	TopicStats   string

	// Timing
	ConsoleLogInterval int // milliseconds
	StatsInterval      int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int    // milliseconds
	DisplayContent        string // "motion", "orientation" or "stats"
}

// Package-level unexported singleton: InitGlobal sets it once, Get reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a Config with every optional value filled in.
func defaults() *Config {
	return &Config{
		IMUBaudRate:           921600,
		IMUInitBaudRate:       115200,
		IMUMockRateHz:         100,
		IMUFIFOSize:           128,
		IMUReadChunk:          64,
		IMURxTimeoutUS:        200,
		IMUParseInterval:      10,
		TopicReading:          "imu/reading",
		TopicFixed:            "imu/fixed",
		TopicStats:            "imu/stats",
		ConsoleLogInterval:    1000,
		StatsInterval:         5000,
		WebServerPort:         8080,
		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 200,
		DisplayContent:        "orientation",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines from r. Blank lines and lines starting with
// '#' are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := defaults()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

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

func parseInt(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// IMU serial link
	case "IMU_SERIAL_PORT":
		c.IMUSerialPort = value
	case "IMU_BAUD_RATE":
		c.IMUBaudRate, err = parseInt(key, value, 1200, 4000000)
	case "IMU_INIT_BAUD_RATE":
		c.IMUInitBaudRate, err = parseInt(key, value, 1200, 4000000)
	case "IMU_SEND_INIT":
		c.IMUSendInit, err = parseBool(key, value)
	case "IMU_MOCK":
		c.IMUMock, err = parseBool(key, value)
	case "IMU_MOCK_RATE_HZ":
		c.IMUMockRateHz, err = parseInt(key, value, 1, 1000)
	case "IMU_MOCK_CORRUPT":
		c.IMUMockCorrupt, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid IMU_MOCK_CORRUPT %q: %w", value, err)
		}
		if c.IMUMockCorrupt < 0 || c.IMUMockCorrupt > 1 {
			return fmt.Errorf("IMU_MOCK_CORRUPT must be 0-1, got %v", c.IMUMockCorrupt)
		}

	// Receive path
	case "IMU_FIFO_SIZE":
		c.IMUFIFOSize, err = parseInt(key, value, 2, 4096)
		if err == nil && c.IMUFIFOSize&(c.IMUFIFOSize-1) != 0 {
			err = fmt.Errorf("IMU_FIFO_SIZE must be a power of two, got %d", c.IMUFIFOSize)
		}
	case "IMU_READ_CHUNK":
		c.IMUReadChunk, err = parseInt(key, value, 1, 4096)
	case "IMU_RX_TIMEOUT_US":
		c.IMURxTimeoutUS, err = parseInt(key, value, 1, 1000000)
	case "IMU_PARSE_INTERVAL":
		c.IMUParseInterval, err = parseInt(key, value, 1, 60000)
	case "IMU_RESYNC":
		c.IMUResync, err = parseBool(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_READING":
		c.TopicReading = value
	case "TOPIC_FIXED":
		c.TopicFixed = value
	case "TOPIC_STATS":
		c.TopicStats = value

	// Timing
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = parseInt(key, value, 1, 3600000)
	case "STATS_INTERVAL":
		c.StatsInterval, err = parseInt(key, value, 1, 3600000)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, perr)
		}
		if addr < 0x03 || addr > 0x77 {
			return fmt.Errorf("DISPLAY_I2C_ADDR must be a 7-bit address 0x03-0x77, got %#x", addr)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value, 1, 60000)
	case "DISPLAY_CONTENT":
		switch value {
		case "motion", "orientation", "stats":
			c.DisplayContent = value
		default:
			return fmt.Errorf("DISPLAY_CONTENT must be motion, orientation or stats, got %q", value)
		}

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if !c.IMUMock && c.IMUSerialPort == "" {
		return fmt.Errorf("IMU_SERIAL_PORT is required unless IMU_MOCK is set")
	}
	if c.TopicReading == "" || c.TopicFixed == "" || c.TopicStats == "" {
		return fmt.Errorf("TOPIC_READING, TOPIC_FIXED and TOPIC_STATS must not be empty")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
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
