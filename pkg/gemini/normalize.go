package gemini

import (
	"encoding/json"
	"net/http"

	"mercator-hq/atelier/pkg/proxy/types"
)

// MsgNoContent is returned when the upstream succeeded but produced nothing.
const MsgNoContent = "No content generated."

type inlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type part struct {
	Text       *string     `json:"text"`
	InlineData *inlineData `json:"inlineData"`
}

type editResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Text *string `json:"text"`
}

type generateResponse struct {
	GeneratedImages []struct {
		Image *struct {
			ImageBytes string `json:"imageBytes"`
		} `json:"image"`
	} `json:"generatedImages"`
}

type errorResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Normalize extracts a Result from a successful upstream body.
//
// For edits the first candidate's parts are scanned in order and the last
// text part and the last inline image both win. Without a candidate part
// list, a top-level "text" field is used instead. For generation the first
// generated image is taken. An empty result is an ExternalService error.
func Normalize(action Action, body []byte) (*Result, error) {
	var (
		result *Result
		err    error
	)

	switch action {
	case ActionEdit:
		result, err = normalizeEdit(body)
	case ActionGenerate:
		result, err = normalizeGenerate(body)
	default:
		return nil, types.NewInternalError("Unsupported action.", nil)
	}
	if err != nil {
		return nil, types.NewExternalServiceError(ServiceName, "Invalid response from upstream.", http.StatusBadGateway, err)
	}

	if result.Empty() {
		return nil, types.NewExternalServiceError(ServiceName, MsgNoContent, http.StatusBadGateway, nil)
	}
	return result, nil
}

func normalizeEdit(body []byte) (*Result, error) {
	var resp editResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	result := &Result{}

	var parts []part
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		parts = resp.Candidates[0].Content.Parts
	}

	if parts == nil {
		result.Text = resp.Text
		return result, nil
	}

	for _, p := range parts {
		switch {
		case p.Text != nil:
			text := *p.Text
			result.Text = &text
		case p.InlineData != nil && p.InlineData.Data != "":
			data := p.InlineData.Data
			result.ImageBase64 = &data
		}
	}
	return result, nil
}

func normalizeGenerate(body []byte) (*Result, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	result := &Result{}
	if len(resp.GeneratedImages) > 0 && resp.GeneratedImages[0].Image != nil {
		if b := resp.GeneratedImages[0].Image.ImageBytes; b != "" {
			result.ImageBase64 = &b
		}
	}
	return result, nil
}

// UpstreamErrorMessage returns error.message from an upstream failure body,
// or a generic message for the action when the body carries none.
func UpstreamErrorMessage(action Action, body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	if action == ActionEdit {
		return "Gemini image edit failed."
	}
	return "Gemini image generation failed."
}
