package intake

import (
	"bytes"
	"context"
	stdimage "image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFile_DetectsType(t *testing.T) {
	dir := t.TempDir()
	pngPath := writeFile(t, dir, "face.png", pngBytes(t))
	txtPath := writeFile(t, dir, "notes.png", []byte("just some text, not an image"))

	f, err := LoadFile(pngPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if f.MediaType != "image/png" {
		t.Errorf("expected image/png, got %s", f.MediaType)
	}
	if f.Name != "face.png" {
		t.Errorf("expected name face.png, got %s", f.Name)
	}
	if int64(len(f.Data)) != f.Size || f.Size == 0 {
		t.Errorf("expected payload of %d bytes, got %d", f.Size, len(f.Data))
	}

	// Extension lies, content decides.
	f, err = LoadFile(txtPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if f.IsImage() {
		t.Errorf("expected text content to be detected as non-image, got %s", f.MediaType)
	}
}

func TestLoadFile_Directory(t *testing.T) {
	if _, err := LoadFile(t.TempDir()); err == nil {
		t.Error("expected error for directory")
	}
}

func TestLoadFiles_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t)
	names := []string{"c.png", "a.png", "b.png", "e.png", "d.png"}
	var paths []string
	for _, name := range names {
		paths = append(paths, writeFile(t, dir, name, data))
	}

	files, err := LoadFiles(context.Background(), paths)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}
	for i, f := range files {
		if f.Name != names[i] {
			t.Errorf("position %d: expected %s, got %s", i, names[i], f.Name)
		}
	}
}

func TestLoadFiles_MissingFile(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeFile(t, dir, "a.png", pngBytes(t)), filepath.Join(dir, "missing.png")}

	if _, err := LoadFiles(context.Background(), paths); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCollectImagePaths(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t)
	writeFile(t, dir, "b.jpg", data)
	writeFile(t, dir, "a.PNG", data)
	writeFile(t, dir, "readme.md", []byte("x"))
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0750); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "c.webp", data)
	explicit := writeFile(t, t.TempDir(), "explicit.txt", []byte("x"))

	flat, err := CollectImagePaths([]string{dir, explicit}, false)
	if err != nil {
		t.Fatalf("CollectImagePaths failed: %v", err)
	}
	expected := []string{filepath.Join(dir, "a.PNG"), filepath.Join(dir, "b.jpg"), explicit}
	if len(flat) != len(expected) {
		t.Fatalf("expected %d paths, got %d: %v", len(expected), len(flat), flat)
	}
	for i := range expected {
		if flat[i] != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], flat[i])
		}
	}

	deep, err := CollectImagePaths([]string{dir}, true)
	if err != nil {
		t.Fatalf("CollectImagePaths failed: %v", err)
	}
	if len(deep) != 3 {
		t.Errorf("expected 3 paths when recursive, got %d: %v", len(deep), deep)
	}

	if _, err := CollectImagePaths([]string{filepath.Join(dir, "nope")}, false); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestFromMultipart(t *testing.T) {
	data := pngBytes(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="comparison_images"; filename="declared.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, _ := writer.CreatePart(h)
	part.Write(data)

	sniffed, _ := writer.CreateFormFile("comparison_images", "../../sniffed.bin")
	sniffed.Write(data)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("failed to parse form: %v", err)
	}
	headers := req.MultipartForm.File["comparison_images"]
	if len(headers) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(headers))
	}

	declared, err := FromMultipart(headers[0])
	if err != nil {
		t.Fatalf("FromMultipart failed: %v", err)
	}
	if declared.MediaType != "image/jpeg" {
		t.Errorf("expected declared type to be kept, got %s", declared.MediaType)
	}

	detected, err := FromMultipart(headers[1])
	if err != nil {
		t.Fatalf("FromMultipart failed: %v", err)
	}
	if detected.MediaType != "image/png" {
		t.Errorf("expected sniffed image/png, got %s", detected.MediaType)
	}
	if detected.Name != "sniffed.bin" {
		t.Errorf("expected sanitized name, got %s", detected.Name)
	}
}
