package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/mcqvideo/internal"
)

// DefaultAddr is the listen address of serve-http
const DefaultAddr = "127.0.0.1:8080"

// Commands groups the root command and its subcommands. The caller sets
// the RunE functions.
type Commands struct {
	Root      *cobra.Command
	Serve     *cobra.Command
	ServeHTTP *cobra.Command
	Watch     *cobra.Command
}

// CreateCommands creates and configures the command tree
func CreateCommands(flags *Flags) *Commands {
	cmds := &Commands{
		Root: &cobra.Command{
			Use:   "mcqvideo [file.csv]",
			Short: "Narrated MCQ video generator",
			Long: `mcqvideo turns a CSV of multiple choice questions into one narrated video.

Every row becomes a slide, the slide text is read aloud and each slide is
shown for as long as its narration lasts.

Examples:
  mcqvideo quiz.csv                     # Write ./Gyan_Dariyo_final_video_output/...
  mcqvideo quiz.csv -o quiz.mp4         # Choose the final video name
  mcqvideo serve                        # Expose create_mcq_video over MCP stdio
  mcqvideo serve-http --addr :8080      # Expose create_mcq_video over HTTP
  mcqvideo watch ./inbox                # Make a video for every CSV dropped in ./inbox`,
			Args:          cobra.MaximumNArgs(1),
			Version:       internal.Version,
			SilenceUsage:  true,
			SilenceErrors: true,
		},
		Serve: &cobra.Command{
			Use:   "serve",
			Short: "Serve the create_mcq_video tool over MCP stdio",
			Args:  cobra.NoArgs,
		},
		ServeHTTP: &cobra.Command{
			Use:   "serve-http",
			Short: "Serve the create_mcq_video tool over HTTP",
			Args:  cobra.NoArgs,
		},
		Watch: &cobra.Command{
			Use:   "watch <dir>",
			Short: "Create a video for every CSV file dropped into a directory",
			Args:  cobra.ExactArgs(1),
		},
	}

	setupFlags(cmds, flags)
	cmds.Root.AddCommand(cmds.Serve, cmds.ServeHTTP, cmds.Watch)

	return cmds
}

func setupFlags(cmds *Commands, flags *Flags) {
	// Global flags
	pf := cmds.Root.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.mcqvideo.yaml)")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn or error")
	pf.BoolVar(&flags.Journal, "journal", false, "Record row progress in <output-dir>/mcq_journal.db")
	pf.BoolVar(&flags.Archive, "archive", false, "Move an existing output directory to archive/ before a run")

	// Slide flags
	pf.IntVar(&flags.Width, "width", flags.Width, "Slide width in pixels")
	pf.IntVar(&flags.Height, "height", flags.Height, "Slide height in pixels")
	pf.StringVar(&flags.FontPath, "font", flags.FontPath, "TrueType or OpenType font file")
	pf.IntVar(&flags.FontSize, "font-size", flags.FontSize, "Font size in pixels")
	pf.StringVar(&flags.BgColor, "bg-color", flags.BgColor, "Background color as r,g,b")
	pf.StringVar(&flags.FontColor, "font-color", flags.FontColor, "Text color as r,g,b")
	pf.IntVar(&flags.FPS, "fps", flags.FPS, "Frame rate of the clips")
	pf.StringVar(&flags.Language, "language", flags.Language, "Narration language code, e.g. en, hi, gu")

	// Audio flags
	pf.StringVar(&flags.AudioProvider, "audio-provider", flags.AudioProvider, "Speech provider: espeak, openai or gemini")
	pf.StringVar(&flags.AudioFallback, "audio-fallback", "", "Provider used when the first one fails for a row")
	pf.StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	pf.StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, coral, echo, fable, onyx, nova, sage, shimmer")
	pf.Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0, may be ignored by gpt-4o-mini-tts)")
	pf.StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts")

	// Local flags
	cmds.Root.Flags().StringVarP(&flags.OutputFilename, "output", "o", flags.OutputFilename, "Name of the final video")
	cmds.Root.Flags().BoolVar(&flags.ListModels, "list-models", false, "List the OpenAI speech models for the current API key")
	cmds.Root.Flags().BoolVar(&flags.PrintConfig, "print-config", false, "Print the effective configuration as YAML")

	cmds.ServeHTTP.Flags().StringVar(&flags.Addr, "addr", flags.Addr, "Listen address")
	cmds.ServeHTTP.Flags().StringVar(&flags.WatchDir, "watch", "", "Also watch this directory for CSV files")
	for _, cmd := range []*cobra.Command{cmds.ServeHTTP, cmds.Watch} {
		cmd.Flags().IntVar(&flags.MaxConcurrent, "max-concurrent", flags.MaxConcurrent, "Tables processed at once by the watcher")
	}

	// Bind flags to viper
	bindFlagsToViper(pf, map[string]string{
		"log.level":                "log-level",
		"output.journal":           "journal",
		"output.archive":           "archive",
		"render.width":             "width",
		"render.height":            "height",
		"render.font_path":         "font",
		"render.font_size":         "font-size",
		"render.bg_color":          "bg-color",
		"render.font_color":        "font-color",
		"render.fps":               "fps",
		"audio.language":           "language",
		"audio.provider":           "audio-provider",
		"audio.fallback":           "audio-fallback",
		"audio.openai_model":       "openai-model",
		"audio.openai_voice":       "openai-voice",
		"audio.openai_speed":       "openai-speed",
		"audio.openai_instruction": "openai-instruction",
	})
	bindFlagsToViper(cmds.ServeHTTP.Flags(), map[string]string{
		"server.addr": "addr",
	})
}

func bindFlagsToViper(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		viper.BindPFlag(key, fs.Lookup(name))
	}
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	SetDefaults()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".mcqvideo" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mcqvideo")
	}

	// Environment variables, e.g. MCQVIDEO_RENDER_FONT_PATH
	viper.SetEnvPrefix("MCQVIDEO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file. Stdout belongs to the MCP transport.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("audio.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("audio.gemini_key")
}
