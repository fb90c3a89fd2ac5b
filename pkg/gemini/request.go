package gemini

// Action names the operation requested by the client.
type Action string

const (
	// ActionEdit transforms one or more input images according to a prompt.
	ActionEdit Action = "edit"

	// ActionGenerate produces a new image from a prompt alone.
	ActionGenerate Action = "generate"
)

// ServiceName identifies the upstream in client-visible error messages.
const ServiceName = "Gemini API"

// Request is a validated client request: either *EditRequest or
// *GenerateRequest. The unexported method closes the set.
type Request interface {
	Action() Action
	request()
}

// Image is one inline input image.
type Image struct {
	Base64   string `json:"base64" validate:"required"`
	MimeType string `json:"mimeType" validate:"required"`
}

// EditRequest asks the upstream to edit the given images.
type EditRequest struct {
	Prompt string
	Images []Image
}

// Action implements Request.
func (*EditRequest) Action() Action { return ActionEdit }

func (*EditRequest) request() {}

// GenerateRequest asks the upstream to generate a single image.
type GenerateRequest struct {
	Prompt string
}

// Action implements Request.
func (*GenerateRequest) Action() Action { return ActionGenerate }

func (*GenerateRequest) request() {}

// Result is the normalized upstream output. At least one field is set on
// success; absent fields encode as JSON null.
type Result struct {
	Text        *string `json:"text"`
	ImageBase64 *string `json:"imageBase64"`
}

// Empty reports whether neither text nor image was produced.
func (r *Result) Empty() bool {
	return (r.Text == nil || *r.Text == "") && (r.ImageBase64 == nil || *r.ImageBase64 == "")
}

// SuccessMessage returns the client-facing message for a completed action.
func SuccessMessage(a Action) string {
	if a == ActionEdit {
		return "Image edited successfully"
	}
	return "Image generated successfully"
}
