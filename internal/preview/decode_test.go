package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/kozaktomas/face-compare/internal/intake"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, h/2, color.RGBA{G: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeDataURI(t *testing.T, uri string) image.Config {
	t.Helper()
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("expected JPEG data URI, got %.40s", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid jpeg: %v", err)
	}
	return cfg
}

func TestThumbnailDecoder_Resizes(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"landscape", 600, 300, 256, 128},
		{"portrait", 300, 600, 128, 256},
		{"small kept", 100, 50, 100, 50},
	}

	d := NewThumbnailDecoder(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &intake.ImageFile{Name: "a.png", MediaType: "image/png", Data: encodePNG(t, tt.width, tt.height)}
			uri, err := d.Decode(context.Background(), f)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			cfg := decodeDataURI(t, uri)
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, cfg.Width, cfg.Height)
			}
		})
	}
}

func TestThumbnailDecoder_Errors(t *testing.T) {
	d := NewThumbnailDecoder(64)

	if _, err := d.Decode(context.Background(), &intake.ImageFile{Name: "empty.png"}); err == nil {
		t.Error("expected error for empty payload")
	}
	if _, err := d.Decode(context.Background(), &intake.ImageFile{Name: "bad.png", Data: []byte("garbage")}); err == nil {
		t.Error("expected error for undecodable payload")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Decode(ctx, &intake.ImageFile{Name: "a.png", Data: encodePNG(t, 8, 8)}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

// oversizedPNG returns a tiny PNG whose header declares width x height pixels.
func oversizedPNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := encodePNG(t, 1, 1)
	// IHDR: length at 8, type at 12, width at 16, height at 20, CRC at 29.
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestThumbnailDecoder_RejectsOversizedDimensions(t *testing.T) {
	data := oversizedPNG(t, 60000, 60000)
	if len(data) > 1024 {
		t.Fatalf("crafted PNG unexpectedly large: %d bytes", len(data))
	}

	d := NewThumbnailDecoder(256)
	_, err := d.Decode(context.Background(), &intake.ImageFile{Name: "bomb.png", MediaType: "image/png", Size: int64(len(data)), Data: data})
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestAggregator_OversizedImageBecomesPlaceholder(t *testing.T) {
	files := []*intake.ImageFile{
		{Name: "ok.png", MediaType: "image/png", Data: encodePNG(t, 8, 8)},
		{Name: "bomb.png", MediaType: "image/png", Data: oversizedPNG(t, 60000, 60000)},
	}

	a := NewAggregator(NewThumbnailDecoder(64), nil)
	a.Start(files)
	if err := a.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	s := a.Snapshot()
	if !s.Ready || len(s.Entries) != 2 {
		t.Fatalf("expected 2 ready entries, got %+v", s)
	}
	if s.Entries[0].Failed || s.Entries[0].DataURI == "" {
		t.Errorf("expected first entry decoded, got %+v", s.Entries[0])
	}
	if !s.Entries[1].Failed {
		t.Errorf("expected oversized entry to be a placeholder, got %+v", s.Entries[1])
	}
}
