package internal

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Version is the application version reported by the CLI and the tool servers
const Version = "0.4.0"

// DefaultOutputFilename is the final video name used when a request names none
const DefaultOutputFilename = "Gyan_Dariyo_final_video.mp4"

// OutputDirName returns the directory that holds all artifacts of a run
// producing outputFilename: "<basename>_output".
func OutputDirName(outputFilename string) string {
	base := filepath.Base(outputFilename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "_output"
}

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
