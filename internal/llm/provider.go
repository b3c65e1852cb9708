// Package llm abstracts the external image-generation service.
package llm

import "context"

// Provider defines the generation methods used by services.
type Provider interface {
	GenerateImage(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	EditImage(ctx context.Context, req EditRequest) (EditResponse, error)
}

// GenerateRequest asks for a new image from a text prompt, sized to the
// document it will be layered onto.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type GenerateResponse struct {
	ImageData []byte `json:"image_data"`
	Format    string `json:"format"`
	Model     string `json:"model"`
}

// EditRequest asks for a prompt-driven rework of existing layer bytes.
type EditRequest struct {
	Prompt    string `json:"prompt"`
	ImageData []byte `json:"image_data"`
}

type EditResponse struct {
	ImageData []byte `json:"image_data"`
	Format    string `json:"format"`
	Model     string `json:"model"`
}
