package explainer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/algostream/internal/domain"
)

func TestClient_Explain(t *testing.T) {
	var got ExplainRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/explain-step", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"mode":"technical","explanation":"swap","short_hint":"h","confidence_estimate":"high","followup_question":"q?"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second)
	behavior := domain.DefaultBehaviorSignal()
	behavior.ReplayCount = 3

	expl, err := client.Explain(context.Background(), domain.MustFrame(`{"stepIndex":2,"array":[1,2]}`), behavior)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeTechnical, expl.Mode)
	assert.Equal(t, "swap", expl.Explanation)
	assert.Equal(t, domain.ConfidenceHigh, expl.ConfidenceEstimate)

	assert.Equal(t, 3, got.UserBehavior.ReplayCount)
	assert.Equal(t, 1.0, got.UserBehavior.SpeedMultiplier)
	assert.JSONEq(t, `{"stepIndex":2,"array":[1,2]}`, string(got.Frame.Bytes()))
}

func TestClient_Explain_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"error body", http.StatusInternalServerError, `{"error":"model overloaded"}`, "model overloaded"},
		{"plain status", http.StatusBadGateway, "bad gateway", "status 502"},
		{"undecodable", http.StatusOK, "not json", "failed to decode explanation"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, time.Second).Explain(context.Background(), domain.MustFrame(`{}`), domain.DefaultBehaviorSignal())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestClient_Explain_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 20*time.Millisecond).Explain(context.Background(), domain.MustFrame(`{}`), domain.DefaultBehaviorSignal())
	require.Error(t, err)
}
