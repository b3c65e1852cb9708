// Package service ties the generation provider to the editing engine.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jask/bananaslice/internal/layer"
	"github.com/jask/bananaslice/internal/llm"
	"github.com/jask/bananaslice/internal/session"
)

// GenerateService turns prompts into layers on the active document.
type GenerateService struct {
	Provider llm.Provider
	Sessions *session.Manager
}

// AddGeneratedLayer asks the provider for an image sized to the active
// document's base and appends it as a new generated layer, committing
// one history entry. Returns the new layer id.
func (s *GenerateService) AddGeneratedLayer(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt required")
	}
	if s.Sessions.ActiveID() == "" {
		return "", fmt.Errorf("no active session")
	}

	req := llm.GenerateRequest{Prompt: prompt}
	if base := s.Sessions.Base(); base != nil {
		req.Width = base.Width
		req.Height = base.Height
	}
	resp, err := s.Provider.GenerateImage(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	s.Sessions.Commit()
	id := s.Sessions.Stack().AddLayer(layer.Spec{
		Kind:              layer.KindGenerated,
		Name:              layerName(prompt),
		Visible:           true,
		Opacity:           100,
		ImageData:         resp.ImageData,
		OriginalImageData: resp.ImageData,
	})
	return id, nil
}

// EditActiveLayer reworks the active layer's image with a prompt,
// keeping the pre-edit source so derived effects stay lossless.
func (s *GenerateService) EditActiveLayer(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt required")
	}
	stack := s.Sessions.Stack()
	l, ok := stack.Get(stack.ActiveID())
	if !ok {
		return fmt.Errorf("no active layer")
	}
	if l.Kind == layer.KindBase {
		return fmt.Errorf("base layer cannot be edited")
	}

	resp, err := s.Provider.EditImage(ctx, llm.EditRequest{Prompt: prompt, ImageData: l.SourceImage()})
	if err != nil {
		return fmt.Errorf("edit image: %w", err)
	}

	s.Sessions.Commit()
	var original []byte
	if len(l.OriginalImageData) == 0 {
		original = l.ImageData // retain the pre-edit render as the source
	}
	stack.SetImage(l.ID, resp.ImageData, original)
	return nil
}

func layerName(prompt string) string {
	const max = 24
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max] + "…"
}
