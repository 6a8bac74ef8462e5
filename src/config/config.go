package config

import (
	"os"
	"testing"
	"time"

	"github.com/natterlabs/natter/src/common"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default configuration values.
const (
	DefaultLogLevel       = "debug"
	DefaultService        = "broadcast"
	DefaultGossipInterval = 250 * time.Millisecond
	DefaultMaxHandlers    = 128
)

// Config contains all the configuration properties of a natter node.
type Config struct {
	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// Service selects the protocol implementation that the node runs. One of
	// "broadcast", "echo", or "unique-ids".
	Service string `mapstructure:"service"`

	// GossipInterval is the time between two ticks of the dissemination
	// routine. It only applies to services that implement periodic gossip.
	GossipInterval time.Duration `mapstructure:"gossip-interval"`

	// MaxHandlers is the maximum number of message handlers running
	// concurrently. When the limit is reached, further messages are handled
	// inline on the receive loop, which applies natural backpressure.
	MaxHandlers int `mapstructure:"max-handlers"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:       DefaultLogLevel,
		Service:        DefaultService,
		GossipInterval: DefaultGossipInterval,
		MaxHandlers:    DefaultMaxHandlers,
	}
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests. The gossip interval is shortened so that
// convergence tests complete quickly.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.GossipInterval = 20 * time.Millisecond
	config.logger = common.NewTestLogger(t, level)
	return config
}

// Logger returns a formatted logrus Entry with prefix set to "natter". All
// diagnostic output goes to stderr; stdout belongs to the protocol stream.
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Out = os.Stderr
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "natter")
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
