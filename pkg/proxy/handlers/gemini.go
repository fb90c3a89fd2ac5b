package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mercator-hq/atelier/pkg/gemini"
	"mercator-hq/atelier/pkg/proxy"
	"mercator-hq/atelier/pkg/proxy/types"
	"mercator-hq/atelier/pkg/security/secrets"
	"mercator-hq/atelier/pkg/telemetry/logging"
)

// Credential failure messages returned by the image endpoint.
const (
	MsgKeyNotConfigured = "Server is not configured with an API key."
	MsgKeyInvalidFormat = "Invalid API key format."
)

// ImageClient performs upstream image operations.
type ImageClient interface {
	Execute(ctx context.Context, req gemini.Request, apiKey string) (*gemini.Result, error)
	Ping(ctx context.Context, apiKey string) (time.Duration, error)
}

// KeyFunc returns the current upstream credential.
type KeyFunc func() string

// GeminiHandlerConfig configures a GeminiHandler.
type GeminiHandlerConfig struct {
	Client       ImageClient
	Validator    *gemini.Validator
	APIKey       KeyFunc
	MaxBodyBytes int64
}

// GeminiHandler serves POST /api/gemini.
//
// A request is read, validated as a whole, checked against the server
// credential and forwarded upstream exactly once. Validation always runs
// before the credential check so malformed payloads are rejected with 400
// even on a misconfigured server.
type GeminiHandler struct {
	client       ImageClient
	validator    *gemini.Validator
	apiKey       KeyFunc
	maxBodyBytes int64
}

// NewGeminiHandler creates the image endpoint handler.
func NewGeminiHandler(cfg GeminiHandlerConfig) *GeminiHandler {
	validator := cfg.Validator
	if validator == nil {
		validator = gemini.NewValidator(0)
	}
	apiKey := cfg.APIKey
	if apiKey == nil {
		apiKey = func() string {
			key, _ := secrets.LookupAPIKey()
			return key
		}
	}
	return &GeminiHandler{
		client:       cfg.Client,
		validator:    validator,
		apiKey:       apiKey,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// ServeHTTP implements http.Handler.
func (h *GeminiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		proxy.WriteError(w, r, types.NewMethodNotAllowedError())
		return
	}

	body, err := proxy.ReadBody(w, r, h.maxBodyBytes)
	if err != nil {
		proxy.WriteError(w, r, err)
		return
	}

	req, err := h.validator.Parse(body)
	if err != nil {
		proxy.WriteError(w, r, err)
		return
	}

	key := h.apiKey()
	if err := secrets.ValidateAPIKey(key); err != nil {
		proxy.WriteError(w, r, credentialError(err))
		return
	}

	ctx := r.Context()
	logging.FromContext(ctx).InfoContext(ctx, "processing image request", "action", req.Action())

	// The upstream call outlives a disconnecting client; gemini.timeout
	// still bounds it.
	result, err := h.client.Execute(context.WithoutCancel(ctx), req, key)
	if err != nil {
		proxy.WriteError(w, r, err)
		return
	}

	proxy.WriteSuccess(w, r, result, gemini.SuccessMessage(req.Action()))
}

func credentialError(err error) *types.APIError {
	if errors.Is(err, secrets.ErrAPIKeyMissing) {
		return types.NewInternalError(MsgKeyNotConfigured, err)
	}
	return types.NewInternalError(MsgKeyInvalidFormat, err)
}
