package frames

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

const (
	defaultMIME         = "image/png"
	defaultFetchTimeout = 20 * time.Second
	defaultMaxBytes     = 20 << 20
)

// Image is a frame resolved to binary content.
type Image struct {
	Data []byte
	MIME string
}

// Options configures a Resolver.
type Options struct {
	FetchTimeout time.Duration
	MaxBytes     int
	MaxDimension int
	HTTPClient   *http.Client
}

// Resolver turns frame references into image bytes ready for the model.
type Resolver struct {
	httpClient   *http.Client
	fetchTimeout time.Duration
	maxBytes     int
	maxDimension int
}

// NewResolver builds a Resolver with the supplied limits.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		httpClient:   opts.HTTPClient,
		fetchTimeout: opts.FetchTimeout,
		maxBytes:     opts.MaxBytes,
		maxDimension: opts.MaxDimension,
	}
	if r.httpClient == nil {
		r.httpClient = &http.Client{}
	}
	if r.fetchTimeout <= 0 {
		r.fetchTimeout = defaultFetchTimeout
	}
	if r.maxBytes <= 0 {
		r.maxBytes = defaultMaxBytes
	}
	return r
}

// Resolve decodes an inline data URL or fetches a remote image, then
// downscales it when it exceeds the configured dimension.
func (r *Resolver) Resolve(ctx context.Context, ref string) (Image, error) {
	ref = strings.TrimSpace(ref)
	var (
		img Image
		err error
	)
	switch {
	case ref == "":
		return Image{}, errors.New("frame reference is empty")
	case strings.HasPrefix(ref, "data:"):
		img, err = DecodeDataURL(ref)
	default:
		img, err = r.fetch(ctx, ref)
	}
	if err != nil {
		return Image{}, err
	}
	if len(img.Data) > r.maxBytes {
		return Image{}, fmt.Errorf("frame exceeds %d bytes", r.maxBytes)
	}
	return Downscale(img, r.maxDimension), nil
}

func (r *Resolver) fetch(ctx context.Context, ref string) (Image, error) {
	parsed, err := url.Parse(ref)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Image{}, fmt.Errorf("frame reference %q is not an http(s) or data URL", summarize(ref))
	}
	ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return Image{}, fmt.Errorf("fetch frame: new request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch frame: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return Image{}, fmt.Errorf("fetch frame: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(r.maxBytes)+1))
	if err != nil {
		return Image{}, fmt.Errorf("fetch frame: read body: %w", err)
	}
	return Image{Data: data, MIME: mediaType(resp.Header.Get("Content-Type"))}, nil
}

// DecodeDataURL decodes a base64 data: URL.
func DecodeDataURL(ref string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(ref), "data:")
	if !ok {
		return Image{}, errors.New("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, errors.New("data URL missing payload")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return Image{}, errors.New("data URL must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode data URL: %w", err)
	}
	return Image{Data: data, MIME: mediaType(mimeType)}, nil
}

// DataURL renders bytes as a base64 data: URL.
func DataURL(data []byte, mimeType string) string {
	return "data:" + mediaType(mimeType) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Downscale fits the image inside maxDimension on both axes and re-encodes it
// as JPEG. Images that cannot be decoded or already fit are returned as is.
func Downscale(img Image, maxDimension int) Image {
	if maxDimension <= 0 || len(img.Data) == 0 {
		return img
	}
	decoded, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return img
	}
	bounds := decoded.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return img
	}
	resized := imaging.Fit(decoded, maxDimension, maxDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return img
	}
	return Image{Data: buf.Bytes(), MIME: "image/jpeg"}
}

// InlineLabel describes a frame reference for prompts and logs without
// embedding inline payloads.
func InlineLabel(ref string) string {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, "data:") {
		return ref
	}
	meta, _, _ := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	return "inline image (" + mediaType(strings.TrimSuffix(meta, ";base64")) + ")"
}

func mediaType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultMIME
	}
	parsed, _, err := mime.ParseMediaType(value)
	if err != nil || parsed == "" {
		return defaultMIME
	}
	return parsed
}

func summarize(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}
