package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrFontNotFound is returned when the configured font file does not exist
var ErrFontNotFound = errors.New("font file not found")

// Renderer draws question rows onto slides
type Renderer struct {
	cfg Config

	mu       sync.Mutex
	font     *opentype.Font
	fontPath string
}

// NewRenderer creates a slide renderer for cfg
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render draws cells onto a new slide, saves it as PNG at imagePath and
// returns the drawn lines joined by spaces, ready for narration. Empty and
// whitespace-only cells are skipped; a row without any text still produces
// a blank slide and returns "".
func (r *Renderer) Render(ctx context.Context, cells []string, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	face, err := r.newFace()
	if err != nil {
		return "", err
	}
	defer face.Close()

	img := image.NewRGBA(image.Rect(0, 0, r.cfg.Width, r.cfg.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.cfg.Background.Color()), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(r.cfg.FontColor.Color()),
		Face: face,
	}
	ascent := face.Metrics().Ascent

	// y is the top of the current line
	y := r.cfg.Margin
	var spoken []string
	for _, cell := range cells {
		text := NormalizeSpace(cell)
		if text == "" {
			continue
		}

		for _, line := range Wrap(text, r.cfg.WrapWidth) {
			drawer.Dot = fixed.Point26_6{X: fixed.I(r.cfg.Margin), Y: fixed.I(y) + ascent}
			drawer.DrawString(line)
			y += r.cfg.FontSize + r.cfg.LineSpacing
			spoken = append(spoken, line)
		}
		y += r.cfg.LineSpacing * 2
	}

	if err := savePNG(img, imagePath); err != nil {
		return "", fmt.Errorf("failed to save slide %s: %w", imagePath, err)
	}

	return strings.Join(spoken, " "), nil
}

// CheckFont reports ErrFontNotFound when path does not name an existing file
func CheckFont(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFontNotFound, path)
		}
		return fmt.Errorf("failed to stat font %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFontNotFound, path)
	}
	return nil
}

func (r *Renderer) newFace() (font.Face, error) {
	if err := CheckFont(r.cfg.FontPath); err != nil {
		return nil, err
	}

	f, err := r.loadFont()
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(r.cfg.FontSize),
		DPI:     72, // font size is given in pixels
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

func (r *Renderer) loadFont() (*opentype.Font, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.font != nil && r.fontPath == r.cfg.FontPath {
		return r.font, nil
	}

	data, err := os.ReadFile(r.cfg.FontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", r.cfg.FontPath, err)
	}

	var f *opentype.Font
	if strings.EqualFold(filepath.Ext(r.cfg.FontPath), ".ttc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font collection %s: %w", r.cfg.FontPath, err)
		}
		f, err = coll.Font(0)
		if err != nil {
			return nil, fmt.Errorf("failed to load first font of %s: %w", r.cfg.FontPath, err)
		}
	} else {
		f, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %s: %w", r.cfg.FontPath, err)
		}
	}

	r.font = f
	r.fontPath = r.cfg.FontPath
	return f, nil
}

func savePNG(img image.Image, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}
