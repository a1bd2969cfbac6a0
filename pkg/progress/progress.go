// Package progress shows terminal feedback for slow pipeline stages such as
// fetching a remote OpenAPI document.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Progress is the interface for progress indicators.
type Progress interface {
	Start(message string) error
	Update(message string) error
	Success(message string) error
	Failure(message string) error
	Stop() error
	IsActive() bool
}

// Config configures progress indicators.
type Config struct {
	// Enabled turns indicators on; when false every call is a no-op
	Enabled bool
	// Writer receives the spinner frames and final messages
	Writer io.Writer
	// Interval between spinner frames
	Interval time.Duration
	// CharSet indexes spinner.CharSets
	CharSet int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:  true,
		Writer:   os.Stderr,
		Interval: 100 * time.Millisecond,
		CharSet:  14,
	}
}

// New returns a spinner for cfg, or a no-op indicator when cfg is disabled.
func New(cfg *Config) Progress {
	if cfg != nil && !cfg.Enabled {
		return noop{}
	}
	return NewSpinner(cfg)
}

// Spinner implements a spinner progress indicator.
type Spinner struct {
	spinner *spinner.Spinner
	config  *Config
	active  bool
	mu      sync.Mutex
}

// NewSpinner creates a new spinner progress indicator.
func NewSpinner(cfg *Config) *Spinner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.Interval == 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	charSet, ok := spinner.CharSets[cfg.CharSet]
	if !ok {
		charSet = spinner.CharSets[14]
	}

	return &Spinner{
		spinner: spinner.New(charSet, cfg.Interval,
			spinner.WithWriter(cfg.Writer),
			spinner.WithHiddenCursor(true)),
		config: cfg,
	}
}

// Start starts the spinner with a message.
func (s *Spinner) Start(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Enabled {
		return nil
	}
	if s.active {
		return fmt.Errorf("spinner already active")
	}

	s.spinner.Suffix = " " + message
	s.spinner.Start()
	s.active = true
	return nil
}

// Update updates the spinner message.
func (s *Spinner) Update(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.spinner.Lock()
	s.spinner.Suffix = " " + message
	s.spinner.Unlock()
	return nil
}

// Success stops the spinner and prints message with a check mark.
func (s *Spinner) Success(message string) error {
	return s.finish("✓", message)
}

// Failure stops the spinner and prints message with a cross.
func (s *Spinner) Failure(message string) error {
	return s.finish("✗", message)
}

func (s *Spinner) finish(mark, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.spinner.Stop()
	s.active = false
	_, err := fmt.Fprintf(s.config.Writer, "%s %s\n", mark, message)
	return err
}

// Stop stops the spinner without a final message.
func (s *Spinner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.spinner.Stop()
	s.active = false
	return nil
}

// IsActive returns true if the spinner is active.
func (s *Spinner) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

type noop struct{}

func (noop) Start(string) error   { return nil }
func (noop) Update(string) error  { return nil }
func (noop) Success(string) error { return nil }
func (noop) Failure(string) error { return nil }
func (noop) Stop() error          { return nil }
func (noop) IsActive() bool       { return false }
