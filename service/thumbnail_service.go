package service

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/color"
	"image/jpeg"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

const (
	thumbWidth  = 600
	thumbHeight = 800
)

// Cover card palette; the course code picks a color deterministically.
var thumbColors = []color.NRGBA{
	{R: 0x4F, G: 0x46, B: 0xE5, A: 0xFF},
	{R: 0x05, G: 0x96, B: 0x69, A: 0xFF},
	{R: 0xDC, G: 0x26, B: 0x26, A: 0xFF},
	{R: 0xD9, G: 0x77, B: 0x06, A: 0xFF},
	{R: 0x7C, G: 0x3A, B: 0xED, A: 0xFF},
	{R: 0x0E, G: 0x74, B: 0x90, A: 0xFF},
}

type ThumbnailService interface {
	// Render produces a JPEG cover card for a material.
	Render(courseCode, materialType string) ([]byte, error)
}

type thumbnailService struct {
	titleFace font.Face
	labelFace font.Face
}

// NewThumbnailService loads the cover font from THUMBNAIL_FONT. The font is
// optional; without one the cards are plain color blocks.
func NewThumbnailService() (ThumbnailService, error) {
	s := &thumbnailService{}

	fontPath := strings.TrimSpace(os.Getenv("THUMBNAIL_FONT"))
	if fontPath == "" {
		return s, nil
	}

	titleFace, err := loadFontFace(fontPath, 64)
	if err != nil {
		return nil, fmt.Errorf("could not load thumbnail font: %w", err)
	}
	labelFace, err := loadFontFace(fontPath, 28)
	if err != nil {
		return nil, fmt.Errorf("could not load thumbnail font: %w", err)
	}
	s.titleFace = titleFace
	s.labelFace = labelFace
	return s, nil
}

func (s *thumbnailService) Render(courseCode, materialType string) ([]byte, error) {
	dc := gg.NewContext(thumbWidth, thumbHeight)

	bg := thumbColors[colorIndex(courseCode)]
	dc.SetColor(bg)
	dc.Clear()

	// Lighter band behind the title.
	dc.SetRGBA(1, 1, 1, 0.12)
	dc.DrawRectangle(0, thumbHeight/2-90, thumbWidth, 180)
	dc.Fill()

	if s.titleFace != nil {
		dc.SetFontFace(s.titleFace)
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(courseCode, thumbWidth/2, thumbHeight/2-20, 0.5, 0.5)
	}
	if s.labelFace != nil && materialType != "" {
		dc.SetFontFace(s.labelFace)
		dc.SetRGBA(1, 1, 1, 0.85)
		dc.DrawStringAnchored(strings.ToUpper(materialType), thumbWidth/2, thumbHeight/2+50, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func colorIndex(courseCode string) int {
	h := fnv.New32a()
	h.Write([]byte(strings.ToUpper(courseCode)))
	return int(h.Sum32() % uint32(len(thumbColors)))
}

func loadFontFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}
