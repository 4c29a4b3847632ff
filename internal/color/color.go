package color

import (
	"os"
)

// ANSI color codes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Bold   = "\033[1m"
)

// Color represents a colorizer that can be enabled or disabled
type Color struct {
	enabled bool
}

// New creates a new Color instance
func New(enabled bool) *Color {
	return &Color{enabled: enabled && shouldEnableColor()}
}

// Enabled reports whether escapes are emitted.
func (c *Color) Enabled() bool {
	return c != nil && c.enabled
}

// shouldEnableColor determines if color should be enabled based on environment
func shouldEnableColor() bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && term != ""
}

func (c *Color) wrap(code, text string) string {
	if !c.Enabled() {
		return text
	}
	return code + text + Reset
}

// Success colors text green
func (c *Color) Success(text string) string {
	return c.wrap(Green, text)
}

// Failure colors text red
func (c *Color) Failure(text string) string {
	return c.wrap(Red, text)
}

// Warning colors text yellow
func (c *Color) Warning(text string) string {
	return c.wrap(Yellow, text)
}

// Cyan colors text cyan (for headers and labels)
func (c *Color) Cyan(text string) string {
	return c.wrap(Cyan, text)
}

// Bold makes text bold
func (c *Color) Bold(text string) string {
	return c.wrap(Bold, text)
}
