package genai

import (
	"encoding/json"
	"fmt"

	"mercator-hq/atelier/pkg/gemini"
)

type inlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type contentPart struct {
	InlineData *inlineData `json:"inlineData,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type content struct {
	Role  string        `json:"role"`
	Parts []contentPart `json:"parts"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type imageConfig struct {
	NumberOfImages int    `json:"numberOfImages"`
	OutputMimeType string `json:"outputMimeType"`
}

type generateImageRequest struct {
	Prompt string      `json:"prompt"`
	Config imageConfig `json:"config"`
}

// buildPayload encodes the upstream body. Edits send every input image in
// order followed by the prompt and ask for both image and text output;
// generation asks for exactly one JPEG.
func buildPayload(req gemini.Request) ([]byte, error) {
	switch r := req.(type) {
	case *gemini.EditRequest:
		parts := make([]contentPart, 0, len(r.Images)+1)
		for _, img := range r.Images {
			parts = append(parts, contentPart{
				InlineData: &inlineData{Data: img.Base64, MimeType: img.MimeType},
			})
		}
		parts = append(parts, contentPart{Text: r.Prompt})

		return json.Marshal(generateContentRequest{
			Contents:         []content{{Role: "user", Parts: parts}},
			GenerationConfig: generationConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
		})

	case *gemini.GenerateRequest:
		return json.Marshal(generateImageRequest{
			Prompt: r.Prompt,
			Config: imageConfig{NumberOfImages: 1, OutputMimeType: "image/jpeg"},
		})

	default:
		return nil, fmt.Errorf("unsupported request type %T", req)
	}
}
