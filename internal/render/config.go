package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Defaults for a run. Font size, spacing, margin and wrap width were tuned
// together for a 1920x1080 canvas.
const (
	DefaultWidth       = 1920
	DefaultHeight      = 1080
	DefaultFontSize    = 70
	DefaultLineSpacing = 10
	DefaultMargin      = 80
	DefaultWrapWidth   = 45
	DefaultFPS         = 24
	DefaultLanguage    = "en"
	DefaultFontPath    = "HindVadodara-Light.ttf"
)

var (
	DefaultBackground = RGB{0, 127, 215}
	DefaultFontColor  = RGB{255, 255, 255}
)

// RGB is an opaque color given as red, green and blue components
type RGB [3]uint8

// Color converts c to a fully opaque color.RGBA
func (c RGB) Color() color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff}
}

// String formats c as "r,g,b"
func (c RGB) String() string {
	return fmt.Sprintf("%d,%d,%d", c[0], c[1], c[2])
}

// Ints returns the components as integers
func (c RGB) Ints() []int {
	return []int{int(c[0]), int(c[1]), int(c[2])}
}

// ParseRGB parses "r,g,b" with each component in 0-255
func ParseRGB(s string) (RGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("color %q must have three components", s)
	}

	var c RGB
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return RGB{}, fmt.Errorf("color %q: %w", s, err)
		}
		if v < 0 || v > 255 {
			return RGB{}, fmt.Errorf("color %q: component %d out of range 0-255", s, v)
		}
		c[i] = uint8(v)
	}
	return c, nil
}

// RGBFromInts builds an RGB from exactly three integers in 0-255
func RGBFromInts(v []int) (RGB, error) {
	if len(v) != 3 {
		return RGB{}, fmt.Errorf("color must have three components, got %d", len(v))
	}

	var c RGB
	for i, n := range v {
		if n < 0 || n > 255 {
			return RGB{}, fmt.Errorf("color component %d out of range 0-255", n)
		}
		c[i] = uint8(n)
	}
	return c, nil
}

// Config holds the parameters of one run. It is passed by value and never
// modified after Validate succeeds.
type Config struct {
	Width       int
	Height      int
	Background  RGB
	FontColor   RGB
	FontPath    string
	FontSize    int
	LineSpacing int
	Margin      int
	WrapWidth   int
	FPS         int
	Language    string
}

// DefaultConfig returns the default run configuration
func DefaultConfig() Config {
	return Config{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Background:  DefaultBackground,
		FontColor:   DefaultFontColor,
		FontPath:    DefaultFontPath,
		FontSize:    DefaultFontSize,
		LineSpacing: DefaultLineSpacing,
		Margin:      DefaultMargin,
		WrapWidth:   DefaultWrapWidth,
		FPS:         DefaultFPS,
		Language:    DefaultLanguage,
	}
}

// Validate checks that the configuration can produce a video
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("font size must be positive, got %d", c.FontSize)
	}
	if c.WrapWidth <= 0 {
		return fmt.Errorf("wrap width must be positive, got %d", c.WrapWidth)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.Margin < 0 || c.LineSpacing < 0 {
		return fmt.Errorf("margin and line spacing must not be negative")
	}
	if strings.TrimSpace(c.FontPath) == "" {
		return fmt.Errorf("font path is required")
	}
	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("language is required")
	}
	return nil
}
