package cli

import (
	"codeberg.org/snonux/mcqvideo/internal"
	"codeberg.org/snonux/mcqvideo/internal/audio"
	"codeberg.org/snonux/mcqvideo/internal/render"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile        string
	OutputFilename string
	LogLevel       string
	ListModels     bool
	PrintConfig    bool
	Journal        bool
	Archive        bool

	// Slide flags
	Width     int
	Height    int
	FontPath  string
	FontSize  int
	BgColor   string
	FontColor string
	FPS       int
	Language  string

	// Audio flags
	AudioProvider     string
	AudioFallback     string
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string

	// Server flags
	Addr          string
	WatchDir      string
	MaxConcurrent int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	rc := render.DefaultConfig()
	ac := audio.DefaultProviderConfig()

	return &Flags{
		OutputFilename: internal.DefaultOutputFilename,
		LogLevel:       "info",
		Width:          rc.Width,
		Height:         rc.Height,
		FontPath:       rc.FontPath,
		FontSize:       rc.FontSize,
		BgColor:        rc.Background.String(),
		FontColor:      rc.FontColor.String(),
		FPS:            rc.FPS,
		Language:       rc.Language,
		AudioProvider:  ac.Provider,
		OpenAIModel:    ac.OpenAIModel,
		OpenAIVoice:    ac.OpenAIVoice,
		OpenAISpeed:    ac.OpenAISpeed,
		Addr:           DefaultAddr,
		MaxConcurrent:  1,
	}
}
