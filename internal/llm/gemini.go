package llm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"time"
)

// GeminiProvider is a lightweight, offline-friendly placeholder
// implementation. It honors the interface and its timeout behavior so
// the rest of the app can remain non-blocking while real API wiring is
// added later.
type GeminiProvider struct {
	apiKey string
	model  string
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey, model: model}
}

// GenerateImage produces a deterministic solid-color PNG derived from
// the prompt, sized to the request. Timeout: 30s, matching what a real
// generation call is given.
func (g *GeminiProvider) GenerateImage(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w, h := req.Width, req.Height
	if w <= 0 {
		w = 512
	}
	if h <= 0 {
		h = 512
	}
	data, err := solidPNG(ctx, promptColor(req.Prompt), w, h)
	if err != nil {
		return GenerateResponse{}, err
	}
	return GenerateResponse{ImageData: data, Format: "png", Model: g.model}, nil
}

// EditImage re-tints the input with the prompt's color at the input's
// own dimensions; undecodable input is an error, as a real provider
// would reject it.
func (g *GeminiProvider) EditImage(ctx context.Context, req EditRequest) (EditResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(req.ImageData))
	if err != nil {
		return EditResponse{}, fmt.Errorf("decode source image: %w", err)
	}
	data, err := solidPNG(ctx, promptColor(req.Prompt), cfg.Width, cfg.Height)
	if err != nil {
		return EditResponse{}, err
	}
	return EditResponse{ImageData: data, Format: "png", Model: g.model}, nil
}

func promptColor(prompt string) color.RGBA {
	sum := sha256.Sum256([]byte(prompt))
	return color.RGBA{R: sum[0], G: sum[1], B: sum[2], A: 255}
}

func solidPNG(ctx context.Context, c color.RGBA, w, h int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
