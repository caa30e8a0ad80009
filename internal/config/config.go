package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPollInterval      = 30 * time.Second
	DefaultDiscoveryInterval = 300 * time.Second

	MinPollInterval = 10 * time.Second
	MaxPollInterval = 300 * time.Second
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Config is the full configuration surface of the bridge.
type Config struct {
	ActorID  string
	APIToken string
	BaseURL  string

	PollInterval      time.Duration
	DiscoveryInterval time.Duration
	IncludeRawData    bool
	FirstDayOfWeek    time.Weekday
	Location          *time.Location
}

// New returns a Config with defaults filled in.
func New() Config {
	return Config{
		PollInterval:      DefaultPollInterval,
		DiscoveryInterval: DefaultDiscoveryInterval,
		FirstDayOfWeek:    time.Monday,
		Location:          time.Local,
	}
}

// Validate rejects configurations the vendor or the aggregator cannot work
// with. The poll interval bounds match the original setup validation.
func (c *Config) Validate() error {
	if c.ActorID == "" {
		return fmt.Errorf("actor id is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("api token is required")
	}
	if c.PollInterval < MinPollInterval || c.PollInterval > MaxPollInterval {
		return fmt.Errorf("poll interval must be between %s and %s, got %s",
			MinPollInterval, MaxPollInterval, c.PollInterval)
	}
	if c.DiscoveryInterval <= 0 {
		return fmt.Errorf("discovery interval must be positive, got %s", c.DiscoveryInterval)
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return nil
}

// ParseWeekday maps a weekday name ("monday", "sunday", ...) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(name)]
	if !ok {
		return time.Monday, fmt.Errorf("unknown weekday %q", name)
	}
	return day, nil
}
