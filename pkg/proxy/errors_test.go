package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"mercator-hq/atelier/pkg/providers"
	"mercator-hq/atelier/pkg/proxy/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    types.Kind
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "validation passes through",
			err:         types.NewValidationError("Prompt is required."),
			wantKind:    types.KindValidation,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Prompt is required.",
		},
		{
			name:        "wrapped api error passes through",
			err:         fmt.Errorf("handler: %w", types.NewRateLimitError("slow down", 10)),
			wantKind:    types.KindRateLimit,
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "slow down",
		},
		{
			name:        "upstream quota error keeps status and message",
			err:         &providers.ProviderError{Provider: "gemini", StatusCode: 429, Message: "quota exceeded"},
			wantKind:    types.KindExternalService,
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "Gemini API error: quota exceeded",
		},
		{
			name:        "upstream 500",
			err:         &providers.ProviderError{Provider: "gemini", StatusCode: 500, Message: "Gemini image edit failed."},
			wantKind:    types.KindExternalService,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Gemini API error: Gemini image edit failed.",
		},
		{
			name:        "unreachable upstream",
			err:         &providers.ProviderError{Provider: "gemini", Message: "connection refused", Cause: errors.New("dial tcp")},
			wantKind:    types.KindExternalService,
			wantStatus:  http.StatusBadGateway,
			wantMessage: "Gemini API error: service unreachable",
		},
		{
			name:        "timeout",
			err:         &providers.TimeoutError{Provider: "gemini", Timeout: 2 * time.Minute},
			wantKind:    types.KindExternalService,
			wantStatus:  http.StatusBadGateway,
			wantMessage: "Gemini API error: request timed out",
		},
		{
			name:        "cancelled",
			err:         context.Canceled,
			wantKind:    types.KindExternalService,
			wantStatus:  http.StatusBadGateway,
			wantMessage: "Gemini API error: request cancelled",
		},
		{
			name:        "unknown error hides detail",
			err:         errors.New("nil pointer somewhere"),
			wantKind:    types.KindInternal,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MsgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.HTTPStatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", got.HTTPStatusCode(), tt.wantStatus)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestClassify_KeepsCause(t *testing.T) {
	cause := errors.New("boom")
	got := Classify(cause)
	if !errors.Is(got, cause) {
		t.Error("classified error should unwrap to its cause")
	}
}
