package video

// Config selects the binaries and codecs used for encoding
type Config struct {
	FFmpeg     string `yaml:"ffmpeg"`
	FFprobe    string `yaml:"ffprobe"`
	VideoCodec string `yaml:"video_codec"`
	AudioCodec string `yaml:"audio_codec"`
	Preset     string `yaml:"preset"`
}

// DefaultConfig returns H.264/AAC encoding with the binaries from PATH
func DefaultConfig() Config {
	return Config{
		FFmpeg:     "ffmpeg",
		FFprobe:    "ffprobe",
		VideoCodec: "libx264",
		AudioCodec: "aac",
		Preset:     "medium",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FFmpeg == "" {
		c.FFmpeg = d.FFmpeg
	}
	if c.FFprobe == "" {
		c.FFprobe = d.FFprobe
	}
	if c.VideoCodec == "" {
		c.VideoCodec = d.VideoCodec
	}
	if c.AudioCodec == "" {
		c.AudioCodec = d.AudioCodec
	}
	if c.Preset == "" {
		c.Preset = d.Preset
	}
	return c
}
