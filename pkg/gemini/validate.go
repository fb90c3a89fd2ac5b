package gemini

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"mercator-hq/atelier/pkg/proxy/types"

	"github.com/go-playground/validator/v10"
)

// Validation messages returned to clients.
const (
	MsgInvalidJSON       = "Invalid JSON body."
	MsgUnsupportedAction = "Unsupported action."
	MsgEditInvalid       = "Invalid payload for edit action. Prompt and at least one image are required."
	MsgImageInvalid      = "Each image must include base64 data and mimeType."
	MsgGeneratePrompt    = "Prompt is required for generate action."
)

// payload is the wire shape of POST /api/gemini.
type payload struct {
	Action string  `json:"action"`
	Prompt string  `json:"prompt"`
	Images []Image `json:"images"`
}

type editPayload struct {
	Prompt string  `validate:"required"`
	Images []Image `validate:"required,min=1,dive"`
}

type generatePayload struct {
	Prompt string `validate:"required"`
}

// Validator turns raw request bodies into typed requests.
type Validator struct {
	validate        *validator.Validate
	maxPromptLength int
	maxImageBytes   int64
}

// NewValidator creates a Validator. A maxPromptLength of zero disables the
// length check.
func NewValidator(maxPromptLength int) *Validator {
	return &Validator{
		validate:        validator.New(),
		maxPromptLength: maxPromptLength,
	}
}

// WithMaxImageBytes caps the decoded size of each edit image. Zero disables
// the check.
func (v *Validator) WithMaxImageBytes(n int64) *Validator {
	v.maxImageBytes = n
	return v
}

// Parse decodes and validates body. Every failure is a validation
// *types.APIError; nothing is partially accepted.
//
// Fields of the wrong JSON type are treated as missing, so {"prompt": 5}
// fails the same way as an absent prompt.
func (v *Validator) Parse(body []byte) (Request, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, types.NewValidationError(MsgInvalidJSON)
	}

	var p payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, types.NewValidationError(MsgInvalidJSON)
		}
	}

	switch Action(p.Action) {
	case ActionEdit:
		return v.parseEdit(&p)
	case ActionGenerate:
		return v.parseGenerate(&p)
	default:
		return nil, types.NewValidationError(MsgUnsupportedAction)
	}
}

func (v *Validator) parseEdit(p *payload) (Request, error) {
	err := v.validate.Struct(editPayload{Prompt: p.Prompt, Images: p.Images})
	if err != nil {
		return nil, types.NewValidationError(editMessage(err))
	}
	if err := v.checkPromptLength(p.Prompt); err != nil {
		return nil, err
	}
	for _, img := range p.Images {
		if v.maxImageBytes > 0 && decodedSize(img.Base64) > v.maxImageBytes {
			return nil, types.NewValidationError(fmt.Sprintf("Each image must be at most %d bytes.", v.maxImageBytes))
		}
	}

	images := make([]Image, len(p.Images))
	copy(images, p.Images)
	return &EditRequest{Prompt: p.Prompt, Images: images}, nil
}

func (v *Validator) parseGenerate(p *payload) (Request, error) {
	if err := v.validate.Struct(generatePayload{Prompt: p.Prompt}); err != nil {
		return nil, types.NewValidationError(MsgGeneratePrompt)
	}
	if err := v.checkPromptLength(p.Prompt); err != nil {
		return nil, err
	}
	return &GenerateRequest{Prompt: p.Prompt}, nil
}

func (v *Validator) checkPromptLength(prompt string) error {
	if v.maxPromptLength > 0 && utf8.RuneCountInString(prompt) > v.maxPromptLength {
		return types.NewValidationError(fmt.Sprintf("Prompt must be at most %d characters.", v.maxPromptLength))
	}
	return nil
}

// decodedSize is the byte length data decodes to, ignoring padding.
func decodedSize(data string) int64 {
	return int64(base64.RawStdEncoding.DecodedLen(len(strings.TrimRight(data, "="))))
}

// editMessage reports missing prompt or images ahead of per-image problems.
func editMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MsgEditInvalid
	}
	for _, fe := range verrs {
		if !strings.Contains(fe.Namespace(), "Images[") {
			return MsgEditInvalid
		}
	}
	return MsgImageInvalid
}
