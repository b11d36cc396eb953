package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/mcqvideo/internal"
	"codeberg.org/snonux/mcqvideo/internal/render"
)

// ToolName is the name under which transports expose the processor
const ToolName = "create_mcq_video"

// ToolDescription is shown to clients listing the tool
const ToolDescription = "Creates a narrated MCQ video from a CSV file. Every row becomes a slide " +
	"with its question, options and answer, read aloud, and all slides are joined into one video. " +
	"Returns the absolute path of the final video or an error message."

// Tool is the capability every transport adapts to
type Tool interface {
	Invoke(ctx context.Context, req Request) Response
}

// Request holds the tool arguments. Nil or empty fields take the defaults
// of the processor configuration.
type Request struct {
	CSVFilePath    string `json:"csv_file_path"`
	OutputFilename string `json:"output_filename,omitempty"`
	Language       string `json:"language,omitempty"`
	FontPath       string `json:"font_path,omitempty"`
	FontSize       *int   `json:"font_size,omitempty"`
	ImgWidth       *int   `json:"img_width,omitempty"`
	ImgHeight      *int   `json:"img_height,omitempty"`
	BgColorRGB     []int  `json:"bg_color_rgb,omitempty"`
	FontColorRGB   []int  `json:"font_color_rgb,omitempty"`
}

// Response is the tool result: the absolute path of the final video, or a
// human readable error message when IsError is set
type Response struct {
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
}

func (r Response) String() string {
	return r.Result
}

func success(path string) Response {
	return Response{Result: path}
}

func failure(format string, args ...interface{}) Response {
	return Response{Result: fmt.Sprintf(format, args...), IsError: true}
}

// Param describes one tool argument for listings and schema generation
type Param struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
}

// Params returns the argument descriptions with defaults taken from cfg
func Params(cfg render.Config) []Param {
	return []Param{
		{Name: "csv_file_path", Type: "string", Required: true,
			Description: "Path to the CSV file. The first row is a header; every further row is one question with its options and answer."},
		{Name: "output_filename", Type: "string", Default: internal.DefaultOutputFilename,
			Description: "File name of the final video. Artifacts go to ./<name>_output/."},
		{Name: "language", Type: "string", Default: cfg.Language,
			Description: "Language code used for narration, e.g. en, hi or gu."},
		{Name: "font_path", Type: "string", Default: cfg.FontPath,
			Description: "Path to a TrueType or OpenType font that covers the script of the questions."},
		{Name: "font_size", Type: "number", Default: cfg.FontSize,
			Description: "Font size in pixels."},
		{Name: "img_width", Type: "number", Default: cfg.Width,
			Description: "Slide width in pixels."},
		{Name: "img_height", Type: "number", Default: cfg.Height,
			Description: "Slide height in pixels."},
		{Name: "bg_color_rgb", Type: "array", Default: cfg.Background.Ints(),
			Description: "Background color as [r, g, b] with components 0-255."},
		{Name: "font_color_rgb", Type: "array", Default: cfg.FontColor.Ints(),
			Description: "Text color as [r, g, b] with components 0-255."},
	}
}

// RequestFromArguments decodes loosely typed tool arguments, as delivered
// by JSON-RPC transports, into a Request. Numbers must be integral.
func RequestFromArguments(args map[string]interface{}) (Request, error) {
	var req Request
	data, err := json.Marshal(args)
	if err != nil {
		return req, fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode arguments: %w", err)
	}
	return req, nil
}

// resolve applies the request on top of base and validates the result. It
// returns the render configuration and the file name of the final video.
func (r Request) resolve(base render.Config) (render.Config, string, error) {
	cfg := base

	if strings.TrimSpace(r.CSVFilePath) == "" {
		return cfg, "", fmt.Errorf("csv_file_path is required")
	}

	outputFilename := internal.DefaultOutputFilename
	if name := strings.TrimSpace(r.OutputFilename); name != "" {
		outputFilename = filepath.Base(name)
		if outputFilename == "." || outputFilename == ".." || outputFilename == string(filepath.Separator) {
			return cfg, "", fmt.Errorf("invalid output_filename %q", r.OutputFilename)
		}
	}

	if lang := strings.TrimSpace(r.Language); lang != "" {
		cfg.Language = lang
	}
	if r.FontPath != "" {
		cfg.FontPath = r.FontPath
	}
	if r.FontSize != nil {
		cfg.FontSize = *r.FontSize
	}
	if r.ImgWidth != nil {
		cfg.Width = *r.ImgWidth
	}
	if r.ImgHeight != nil {
		cfg.Height = *r.ImgHeight
	}
	if r.BgColorRGB != nil {
		c, err := render.RGBFromInts(r.BgColorRGB)
		if err != nil {
			return cfg, "", fmt.Errorf("bg_color_rgb: %w", err)
		}
		cfg.Background = c
	}
	if r.FontColorRGB != nil {
		c, err := render.RGBFromInts(r.FontColorRGB)
		if err != nil {
			return cfg, "", fmt.Errorf("font_color_rgb: %w", err)
		}
		cfg.FontColor = c
	}

	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	return cfg, outputFilename, nil
}
