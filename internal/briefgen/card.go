package briefgen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
)

const (
	cardWidth  = 800
	cardHeight = 418
)

var (
	cardBG     = color.RGBA{R: 0x10, G: 0x1b, B: 0x26, A: 0xff}
	cardText   = color.RGBA{R: 0xe8, G: 0xee, B: 0xf4, A: 0xff}
	cardMuted  = color.RGBA{R: 0x8a, G: 0x9a, B: 0xa8, A: 0xff}
	cardAlert  = color.RGBA{R: 0xd6, G: 0x3a, B: 0x2f, A: 0xff}
	cardWatch  = color.RGBA{R: 0xe8, G: 0xa8, B: 0x33, A: 0xff}
	cardNormal = color.RGBA{R: 0x3f, G: 0x8e, B: 0x5a, A: 0xff}
	cardNoData = color.RGBA{R: 0x55, G: 0x60, B: 0x6a, A: 0xff}
)

func classColor(class string) color.RGBA {
	switch class {
	case asi.ClassAlert:
		return cardAlert
	case asi.ClassWatch:
		return cardWatch
	case asi.ClassNormal:
		return cardNormal
	default:
		return cardNoData
	}
}

// RenderCard draws the monthly summary card as a PNG. It uses the fixed
// bitmap face so the binary carries no font assets.
func RenderCard(s Summary) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(cardBG), image.Point{}, draw.Src)

	drawText(img, 40, 50, "AquiferPulse", cardText)
	drawText(img, 40, 72, fmt.Sprintf("Aquifer Stress Index, Senegal  /  %s", s.Month[:7]), cardMuted)

	// Class tally with colored swatches and count bars.
	rows := []struct {
		label string
		count int
		col   color.RGBA
	}{
		{"alert", s.Counts.Alert, cardAlert},
		{"watch", s.Counts.Watch, cardWatch},
		{"normal", s.Counts.Normal, cardNormal},
		{"no-data", s.Counts.NoData, cardNoData},
	}
	total := s.Counts.Total()
	y := 120
	for _, r := range rows {
		fillRect(img, 40, y-10, 54, y+4, r.col)
		drawText(img, 64, y, fmt.Sprintf("%-7s %3d", r.label, r.count), cardText)
		if total > 0 {
			w := 400 * r.count / total
			fillRect(img, 190, y-10, 190+w, y+4, r.col)
		}
		y += 32
	}

	// Worst basins, ASI ascending.
	y += 16
	drawText(img, 40, y, "Most stressed basins", cardMuted)
	y += 24
	for i, b := range s.Top {
		if i >= 5 {
			break
		}
		fillRect(img, 40, y-10, 54, y+4, classColor(b.Class))
		line := fmt.Sprintf("%-24s %6.3f", truncate(b.Name, 24), b.ASI)
		drawText(img, 64, y, line, cardText)
		y += 26
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

func drawText(img *image.RGBA, x, y int, s string, col color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	draw.Draw(img, image.Rect(x0, y0, x1, y1), image.NewUniform(col), image.Point{}, draw.Src)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
