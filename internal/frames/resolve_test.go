package frames

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeDataURL(t *testing.T) {
	img, err := DecodeDataURL("data:image/webp;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeDataURL returned error: %v", err)
	}
	if string(img.Data) != "hello" || img.MIME != "image/webp" {
		t.Fatalf("unexpected image %+v", img)
	}
	if _, err := DecodeDataURL("data:image/png,raw"); err == nil {
		t.Fatal("expected error for non-base64 data URL")
	}
}

func TestResolveFetchesRemoteImage(t *testing.T) {
	data := pngBytes(t, 4, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png; charset=binary")
		_, _ = w.Write(data)
	}))
	defer server.Close()

	r := NewResolver(Options{FetchTimeout: time.Second})
	img, err := r.Resolve(context.Background(), server.URL+"/frame.png")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if img.MIME != "image/png" || !bytes.Equal(img.Data, data) {
		t.Fatalf("unexpected image mime=%s len=%d", img.MIME, len(img.Data))
	}
}

func TestResolveDefaultsMIME(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("opaque"))
	}))
	defer server.Close()

	img, err := NewResolver(Options{}).Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if img.MIME != "image/png" {
		t.Fatalf("expected default image/png, got %s", img.MIME)
	}
}

func TestResolveRejectsHTTPErrorsAndOversize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
	}))
	defer server.Close()

	r := NewResolver(Options{MaxBytes: 16})
	if _, err := r.Resolve(context.Background(), server.URL+"/missing"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), server.URL+"/big"); err == nil {
		t.Fatal("expected oversize error")
	}
	if _, err := r.Resolve(context.Background(), "ftp://example.com/a.png"); err == nil {
		t.Fatal("expected scheme error")
	}
}

func TestDownscaleFitsLargeImages(t *testing.T) {
	out := Downscale(Image{Data: pngBytes(t, 400, 200), MIME: "image/png"}, 100)
	if out.MIME != "image/jpeg" {
		t.Fatalf("expected jpeg re-encode, got %s", out.MIME)
	}
	decoded, err := imaging.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("unexpected bounds %v", b)
	}
}

func TestDownscaleLeavesSmallOrUndecodableImages(t *testing.T) {
	small := Image{Data: pngBytes(t, 10, 10), MIME: "image/png"}
	if out := Downscale(small, 100); out.MIME != "image/png" || !bytes.Equal(out.Data, small.Data) {
		t.Fatal("expected small image unchanged")
	}
	opaque := Image{Data: []byte("not an image"), MIME: "image/webp"}
	if out := Downscale(opaque, 100); out.MIME != "image/webp" {
		t.Fatal("expected undecodable image unchanged")
	}
}

func TestInlineLabel(t *testing.T) {
	if got := InlineLabel("data:image/jpeg;base64,AAAA"); got != "inline image (image/jpeg)" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := InlineLabel("https://x/y.png"); got != "https://x/y.png" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestFromArgInlinesLocalFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(path, pngBytes(t, 2, 2), 0o644); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	ref, err := FromArg(path)
	if err != nil {
		t.Fatalf("FromArg returned error: %v", err)
	}
	if !strings.HasPrefix(ref, "data:image/png;base64,") {
		t.Fatalf("unexpected ref prefix %q", ref[:32])
	}
	if ref, _ := FromArg("https://example.com/a.png"); ref != "https://example.com/a.png" {
		t.Fatalf("expected URL passthrough, got %q", ref)
	}
}
