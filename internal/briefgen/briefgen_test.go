package briefgen

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

func TestRenderCard(t *testing.T) {
	s := Summary{
		Month:  "2023-06-01",
		Counts: models.ClassCounts{Alert: 2, Watch: 5, Normal: 18, NoData: 3},
		Top: []asi.RankedBasin{
			{BasinID: "A", Name: "Ferlo", ASI: -1.624, Class: "alert"},
			{BasinID: "B", Name: "Saloum", ASI: -1.1, Class: "alert"},
		},
	}

	data, err := RenderCard(s)
	if err != nil {
		t.Fatalf("RenderCard: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != cardWidth || b.Dy() != cardHeight {
		t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), cardWidth, cardHeight)
	}
}

func TestRenderCard_EmptySummary(t *testing.T) {
	if _, err := RenderCard(Summary{Month: "2023-06-01"}); err != nil {
		t.Fatalf("RenderCard: %v", err)
	}
}

func TestCache(t *testing.T) {
	c := NewCache(t.TempDir())

	if _, ok := c.Get("2023-06", "png"); ok {
		t.Fatal("empty cache returned a hit")
	}

	if err := c.Set("2023-06", "png", []byte("card")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("2023-06", "txt", []byte("narrative")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, ok := c.Get("2023-06", "png")
	if !ok || string(data) != "card" {
		t.Errorf("Get = %q, %v; want card, true", data, ok)
	}

	c.Invalidate("2023-06")
	if _, ok := c.Get("2023-06", "png"); ok {
		t.Error("png survived invalidation")
	}
	if _, ok := c.Get("2023-06", "txt"); ok {
		t.Error("txt survived invalidation")
	}
}
