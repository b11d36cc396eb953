package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/mcqvideo/internal/audio"
	"codeberg.org/snonux/mcqvideo/internal/processor"
	"codeberg.org/snonux/mcqvideo/internal/render"
	"codeberg.org/snonux/mcqvideo/internal/video"
)

// Settings is the effective configuration after flags, environment,
// config file and defaults have been layered by viper
type Settings struct {
	Render RenderSettings `yaml:"render"`
	Audio  AudioSettings  `yaml:"audio"`
	Video  video.Config   `yaml:"video"`
	Output OutputSettings `yaml:"output"`
	Server ServerSettings `yaml:"server"`
	Log    LogSettings    `yaml:"log"`
}

// RenderSettings are the slide defaults requests fall back to
type RenderSettings struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	FontPath    string `yaml:"font_path"`
	FontSize    int    `yaml:"font_size"`
	LineSpacing int    `yaml:"line_spacing"`
	Margin      int    `yaml:"margin"`
	WrapWidth   int    `yaml:"wrap_width"`
	FPS         int    `yaml:"fps"`
	BgColor     string `yaml:"bg_color"`
	FontColor   string `yaml:"font_color"`
}

// AudioSettings select and tune the speech provider. API keys are not part
// of it and never printed.
type AudioSettings struct {
	Provider          string        `yaml:"provider"`
	Fallback          string        `yaml:"fallback"`
	Language          string        `yaml:"language"`
	OpenAIModel       string        `yaml:"openai_model"`
	OpenAIVoice       string        `yaml:"openai_voice"`
	OpenAISpeed       float64       `yaml:"openai_speed"`
	OpenAIInstruction string        `yaml:"openai_instruction"`
	GeminiModel       string        `yaml:"gemini_model"`
	GeminiVoice       string        `yaml:"gemini_voice"`
	ESpeakSpeed       int           `yaml:"espeak_speed"`
	BreakerFailures   uint32        `yaml:"breaker_failures"`
	BreakerTimeout    time.Duration `yaml:"breaker_timeout"`
}

// OutputSettings control what happens around the output directory
type OutputSettings struct {
	Journal bool `yaml:"journal"`
	Archive bool `yaml:"archive"`
}

// ServerSettings configure serve-http
type ServerSettings struct {
	Addr string `yaml:"addr"`
}

// LogSettings configure the logger
type LogSettings struct {
	Level string `yaml:"level"`
}

// SetDefaults registers the default of every key with viper
func SetDefaults() {
	rc := render.DefaultConfig()
	ac := audio.DefaultProviderConfig()
	vc := video.DefaultConfig()

	viper.SetDefault("render.width", rc.Width)
	viper.SetDefault("render.height", rc.Height)
	viper.SetDefault("render.font_path", rc.FontPath)
	viper.SetDefault("render.font_size", rc.FontSize)
	viper.SetDefault("render.line_spacing", rc.LineSpacing)
	viper.SetDefault("render.margin", rc.Margin)
	viper.SetDefault("render.wrap_width", rc.WrapWidth)
	viper.SetDefault("render.fps", rc.FPS)
	viper.SetDefault("render.bg_color", rc.Background.String())
	viper.SetDefault("render.font_color", rc.FontColor.String())

	viper.SetDefault("audio.provider", ac.Provider)
	viper.SetDefault("audio.language", rc.Language)
	viper.SetDefault("audio.openai_model", ac.OpenAIModel)
	viper.SetDefault("audio.openai_voice", ac.OpenAIVoice)
	viper.SetDefault("audio.openai_speed", ac.OpenAISpeed)
	viper.SetDefault("audio.gemini_model", ac.GeminiModel)
	viper.SetDefault("audio.gemini_voice", ac.GeminiVoice)
	viper.SetDefault("audio.espeak_speed", ac.ESpeakSpeed)
	viper.SetDefault("audio.breaker_failures", ac.BreakerFailures)
	viper.SetDefault("audio.breaker_timeout", ac.BreakerTimeout)

	viper.SetDefault("video.ffmpeg", vc.FFmpeg)
	viper.SetDefault("video.ffprobe", vc.FFprobe)
	viper.SetDefault("video.video_codec", vc.VideoCodec)
	viper.SetDefault("video.audio_codec", vc.AudioCodec)
	viper.SetDefault("video.preset", vc.Preset)

	viper.SetDefault("server.addr", DefaultAddr)
	viper.SetDefault("log.level", "info")
}

// LoadSettings reads the effective settings from viper
func LoadSettings() (Settings, error) {
	bg, err := colorSetting("render.bg_color")
	if err != nil {
		return Settings{}, err
	}
	fg, err := colorSetting("render.font_color")
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		Render: RenderSettings{
			Width:       viper.GetInt("render.width"),
			Height:      viper.GetInt("render.height"),
			FontPath:    viper.GetString("render.font_path"),
			FontSize:    viper.GetInt("render.font_size"),
			LineSpacing: viper.GetInt("render.line_spacing"),
			Margin:      viper.GetInt("render.margin"),
			WrapWidth:   viper.GetInt("render.wrap_width"),
			FPS:         viper.GetInt("render.fps"),
			BgColor:     bg,
			FontColor:   fg,
		},
		Audio: AudioSettings{
			Provider:          strings.ToLower(viper.GetString("audio.provider")),
			Fallback:          strings.ToLower(viper.GetString("audio.fallback")),
			Language:          viper.GetString("audio.language"),
			OpenAIModel:       viper.GetString("audio.openai_model"),
			OpenAIVoice:       viper.GetString("audio.openai_voice"),
			OpenAISpeed:       viper.GetFloat64("audio.openai_speed"),
			OpenAIInstruction: viper.GetString("audio.openai_instruction"),
			GeminiModel:       viper.GetString("audio.gemini_model"),
			GeminiVoice:       viper.GetString("audio.gemini_voice"),
			ESpeakSpeed:       viper.GetInt("audio.espeak_speed"),
			BreakerFailures:   viper.GetUint32("audio.breaker_failures"),
			BreakerTimeout:    viper.GetDuration("audio.breaker_timeout"),
		},
		Video: video.Config{
			FFmpeg:     viper.GetString("video.ffmpeg"),
			FFprobe:    viper.GetString("video.ffprobe"),
			VideoCodec: viper.GetString("video.video_codec"),
			AudioCodec: viper.GetString("video.audio_codec"),
			Preset:     viper.GetString("video.preset"),
		},
		Output: OutputSettings{
			Journal: viper.GetBool("output.journal"),
			Archive: viper.GetBool("output.archive"),
		},
		Server: ServerSettings{Addr: viper.GetString("server.addr")},
		Log:    LogSettings{Level: viper.GetString("log.level")},
	}

	if _, err := s.RenderConfig(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// colorSetting accepts "r,g,b" from flags and environment as well as a
// YAML list of three integers and normalizes both to "r,g,b"
func colorSetting(key string) (string, error) {
	var raw string
	switch v := viper.Get(key).(type) {
	case string:
		raw = v
	case []interface{}:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = fmt.Sprint(p)
		}
		raw = strings.Join(parts, ",")
	case []int:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = fmt.Sprint(p)
		}
		raw = strings.Join(parts, ",")
	default:
		return "", fmt.Errorf("%s: unsupported color value %v", key, v)
	}

	c, err := render.ParseRGB(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return c.String(), nil
}

// RenderConfig converts the settings into the default render configuration
func (s Settings) RenderConfig() (render.Config, error) {
	bg, err := render.ParseRGB(s.Render.BgColor)
	if err != nil {
		return render.Config{}, fmt.Errorf("render.bg_color: %w", err)
	}
	fg, err := render.ParseRGB(s.Render.FontColor)
	if err != nil {
		return render.Config{}, fmt.Errorf("render.font_color: %w", err)
	}

	rc := render.Config{
		Width:       s.Render.Width,
		Height:      s.Render.Height,
		Background:  bg,
		FontColor:   fg,
		FontPath:    s.Render.FontPath,
		FontSize:    s.Render.FontSize,
		LineSpacing: s.Render.LineSpacing,
		Margin:      s.Render.Margin,
		WrapWidth:   s.Render.WrapWidth,
		FPS:         s.Render.FPS,
		Language:    s.Audio.Language,
	}
	if err := rc.Validate(); err != nil {
		return render.Config{}, fmt.Errorf("invalid render settings: %w", err)
	}
	return rc, nil
}

// AudioConfig builds the provider configuration with the given API keys
func (s Settings) AudioConfig(openAIKey, geminiKey string) *audio.Config {
	cfg := audio.DefaultProviderConfig()

	cfg.Provider = s.Audio.Provider
	cfg.Fallback = s.Audio.Fallback
	cfg.OpenAIKey = openAIKey
	cfg.OpenAIModel = s.Audio.OpenAIModel
	cfg.OpenAIVoice = s.Audio.OpenAIVoice
	cfg.OpenAISpeed = s.Audio.OpenAISpeed
	cfg.OpenAIInstruction = s.Audio.OpenAIInstruction
	cfg.GeminiKey = geminiKey
	cfg.GeminiModel = s.Audio.GeminiModel
	cfg.GeminiVoice = s.Audio.GeminiVoice
	cfg.ESpeakSpeed = s.Audio.ESpeakSpeed
	cfg.BreakerFailures = s.Audio.BreakerFailures
	cfg.BreakerTimeout = s.Audio.BreakerTimeout
	if s.Video.FFmpeg != "" {
		cfg.FFmpegBinary = s.Video.FFmpeg
	}

	return cfg
}

// ProcessorConfig builds the processor configuration
func (s Settings) ProcessorConfig() (processor.Config, error) {
	rc, err := s.RenderConfig()
	if err != nil {
		return processor.Config{}, err
	}
	return processor.Config{
		Render:  rc,
		Journal: s.Output.Journal,
		Archive: s.Output.Archive,
	}, nil
}

// WriteYAML writes the settings to w in config file form
func (s Settings) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return enc.Close()
}
