package llm

import (
	"bytes"
	"context"
	"image"
	_ "image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateImageSizedAndDeterministic(t *testing.T) {
	g := NewGeminiProvider("", "gemini-test")
	ctx := context.Background()

	resp, err := g.GenerateImage(ctx, GenerateRequest{Prompt: "a banana", Width: 32, Height: 16})
	require.NoError(t, err)
	require.Equal(t, "png", resp.Format)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(resp.ImageData))
	require.NoError(t, err)
	require.Equal(t, 32, cfg.Width)
	require.Equal(t, 16, cfg.Height)

	again, err := g.GenerateImage(ctx, GenerateRequest{Prompt: "a banana", Width: 32, Height: 16})
	require.NoError(t, err)
	require.Equal(t, resp.ImageData, again.ImageData, "same prompt, same bytes")

	other, err := g.GenerateImage(ctx, GenerateRequest{Prompt: "a mango", Width: 32, Height: 16})
	require.NoError(t, err)
	require.NotEqual(t, resp.ImageData, other.ImageData)
}

func TestGenerateImageDefaultsSize(t *testing.T) {
	g := NewGeminiProvider("", "gemini-test")
	resp, err := g.GenerateImage(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(resp.ImageData))
	require.NoError(t, err)
	require.Equal(t, 512, cfg.Width)
	require.Equal(t, 512, cfg.Height)
}

func TestEditImageKeepsDimensions(t *testing.T) {
	g := NewGeminiProvider("", "gemini-test")
	src, err := g.GenerateImage(context.Background(), GenerateRequest{Prompt: "src", Width: 20, Height: 10})
	require.NoError(t, err)

	resp, err := g.EditImage(context.Background(), EditRequest{Prompt: "make it blue", ImageData: src.ImageData})
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(resp.ImageData))
	require.NoError(t, err)
	require.Equal(t, 20, cfg.Width)
	require.Equal(t, 10, cfg.Height)
}

func TestEditImageRejectsGarbage(t *testing.T) {
	g := NewGeminiProvider("", "gemini-test")
	_, err := g.EditImage(context.Background(), EditRequest{Prompt: "x", ImageData: []byte("nope")})
	require.Error(t, err)
}
