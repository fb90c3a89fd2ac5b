package handlers

import (
	"errors"
	"net/http"

	"mercator-hq/atelier/pkg/config"
	"mercator-hq/atelier/pkg/proxy"
	"mercator-hq/atelier/pkg/proxy/types"
	"mercator-hq/atelier/pkg/security/secrets"
	"mercator-hq/atelier/pkg/telemetry/logging"
)

// APIVersion is reported by the config endpoint.
const APIVersion = "1.0.0"

// Features lists the capabilities advertised to the client.
type Features struct {
	ImageGeneration bool `json:"imageGeneration"`
	ImageEditing    bool `json:"imageEditing"`
	RateLimiting    bool `json:"rateLimiting"`
	Logging         bool `json:"logging"`
}

// Limits lists the client-visible limits.
type Limits struct {
	MaxImageSize      int64 `json:"maxImageSize"`
	MaxPromptLength   int   `json:"maxPromptLength"`
	RequestsPerMinute int   `json:"requestsPerMinute"`
}

// ClientConfig is the data payload of GET /api/config.
type ClientConfig struct {
	APIVersion string   `json:"apiVersion"`
	Features   Features `json:"features"`
	Limits     Limits   `json:"limits"`
}

// KeyStatus is the data payload of POST /api/config.
type KeyStatus struct {
	KeyValid bool `json:"keyValid"`
}

// ConfigHandler serves /api/config.
//
// Both methods require the server credential to be present and well formed.
// GET then reports features and limits; POST checks the credential live
// against the upstream.
type ConfigHandler struct {
	client ImageClient
	apiKey KeyFunc
	config func() *config.Config
}

// NewConfigHandler creates the config endpoint handler. current is called on
// every request so hot-reloaded limits are reported.
func NewConfigHandler(client ImageClient, apiKey KeyFunc, current func() *config.Config) *ConfigHandler {
	return &ConfigHandler{
		client: client,
		apiKey: apiKey,
		config: current,
	}
}

// ServeHTTP implements http.Handler.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.post(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		proxy.WriteError(w, r, types.NewMethodNotAllowedError())
	}
}

// Messages sent by the config endpoint.
const (
	MsgConfigRetrieved = "Configuration retrieved successfully"
	MsgKeyValid        = "API key is valid"
	MsgKeyInvalid      = "API key validation failed"
)

func (h *ConfigHandler) get(w http.ResponseWriter, r *http.Request) {
	if !h.checkKey(w, r) {
		return
	}

	cfg := h.config()
	proxy.WriteSuccess(w, r, ClientConfig{
		APIVersion: APIVersion,
		Features: Features{
			ImageGeneration: true,
			ImageEditing:    true,
			RateLimiting:    cfg.Limits.RateLimitEnabled(),
			Logging:         true,
		},
		Limits: Limits{
			MaxImageSize:      cfg.Limits.MaxImageBytes,
			MaxPromptLength:   cfg.Limits.MaxPromptLength,
			RequestsPerMinute: requestsPerMinute(cfg.Limits.RateLimit),
		},
	}, MsgConfigRetrieved)
}

// post checks the credential live. A key the upstream refuses still gets a
// success envelope, with keyValid false and status 400.
func (h *ConfigHandler) post(w http.ResponseWriter, r *http.Request) {
	if !h.checkKey(w, r) {
		return
	}

	ctx := r.Context()
	if _, err := h.client.Ping(ctx, h.apiKey()); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "API key check failed", "error", err)
		proxy.WriteSuccessStatus(w, r, http.StatusBadRequest, KeyStatus{KeyValid: false}, MsgKeyInvalid)
		return
	}
	proxy.WriteSuccess(w, r, KeyStatus{KeyValid: true}, MsgKeyValid)
}

// checkKey writes a validation error and reports false when the server
// credential is missing or malformed.
func (h *ConfigHandler) checkKey(w http.ResponseWriter, r *http.Request) bool {
	err := secrets.ValidateAPIKey(h.apiKey())
	if err == nil {
		return true
	}
	msg := "Invalid API key format"
	if errors.Is(err, secrets.ErrAPIKeyMissing) {
		msg = "API key not configured"
	}
	proxy.WriteError(w, r, types.NewValidationError(msg))
	return false
}

// requestsPerMinute scales the configured window to a per-minute figure.
func requestsPerMinute(rl config.RateLimitConfig) int {
	if rl.Window <= 0 {
		return rl.MaxRequests
	}
	return int(float64(rl.MaxRequests) * float64(60e9) / float64(rl.Window))
}
