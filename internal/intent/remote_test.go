package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"switchboard/pkg/provider/llm"
	llmmock "switchboard/pkg/provider/llm/mock"
)

func TestRemoteClassifier_ParsesCategory(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Intent
	}{
		{"clean token", "calendar", IntentCalendar},
		{"upper case", "SEARCH", IntentSearch},
		{"surrounding whitespace", "  time\n", IntentTime},
		{"unknown token", "unknown", IntentUnknown},
		{"invalid token", "weather", IntentUnknown},
		{"chatty response", "The category is: search.", IntentUnknown},
		{"empty response", "", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &llmmock.Provider{
				CompleteResponse: &llm.CompletionResponse{Content: tt.response},
			}
			rc, err := NewRemoteClassifier(p)
			if err != nil {
				t.Fatalf("NewRemoteClassifier: %v", err)
			}

			got := rc.Classify(context.Background(), "Tell me a joke")
			if got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
			if p.CallCount() != 1 {
				t.Errorf("provider called %d times, want 1", p.CallCount())
			}
		})
	}
}

func TestRemoteClassifier_ErrorYieldsUnknown(t *testing.T) {
	p := &llmmock.Provider{CompleteErr: errors.New("connection refused")}
	rc, err := NewRemoteClassifier(p)
	if err != nil {
		t.Fatalf("NewRemoteClassifier: %v", err)
	}

	if got := rc.Classify(context.Background(), "anything"); got != IntentUnknown {
		t.Errorf("Classify = %s, want unknown on provider error", got)
	}
	// No retries: a single failed call is a single call.
	if p.CallCount() != 1 {
		t.Errorf("provider called %d times, want 1 (no retries)", p.CallCount())
	}
}

func TestRemoteClassifier_RequestShape(t *testing.T) {
	p := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "search"},
	}
	rc, err := NewRemoteClassifier(p)
	if err != nil {
		t.Fatalf("NewRemoteClassifier: %v", err)
	}

	rc.Classify(context.Background(), "what is love")

	req := p.LastRequest()
	if req.SystemPrompt == "" {
		t.Error("request has no system prompt")
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "what is love" {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}
	if req.MaxTokens != classifyMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", req.MaxTokens, classifyMaxTokens)
	}
	if req.Temperature != classifyTemperature {
		t.Errorf("Temperature = %v, want %v", req.Temperature, classifyTemperature)
	}
}

func TestRemoteClassifier_Timeout(t *testing.T) {
	p := &llmmock.Provider{
		CompleteFunc: func(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	rc, err := NewRemoteClassifier(p, WithTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewRemoteClassifier: %v", err)
	}

	start := time.Now()
	got := rc.Classify(context.Background(), "slow model")
	if got != IntentUnknown {
		t.Errorf("Classify = %s, want unknown on timeout", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Classify took %v, timeout not applied", elapsed)
	}
}

func TestNewRemoteClassifier_NilProvider(t *testing.T) {
	if _, err := NewRemoteClassifier(nil); err == nil {
		t.Error("expected error for nil provider")
	}
}
