package tracegen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/algostream/internal/domain"
)

func TestClientGenerate(t *testing.T) {
	var gotReq ExecuteRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/execute", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"trace":[{"stepIndex":0,"array":[5,2]},{"stepIndex":1,"array":[2,5],"action":"swap"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second)
	frames, err := client.Generate(context.Background(), "bubble_sort", []int{5, 2})
	require.NoError(t, err)

	assert.Equal(t, "bubble_sort", gotReq.AlgorithmID)
	assert.Equal(t, []int{5, 2}, gotReq.Array)
	require.Len(t, frames, 2)
	assert.Equal(t, domain.FrameKindArray, frames[0].Kind())
	assert.JSONEq(t, `{"stepIndex":1,"array":[2,5],"action":"swap"}`, string(frames[1].Bytes()))
}

func TestClientGenerateErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"error body":       {http.StatusBadRequest, `{"error":"unknown algorithm"}`, "unknown algorithm"},
		"fastapi detail":   {http.StatusUnprocessableEntity, `{"detail":"array required"}`, "array required"},
		"plain status":     {http.StatusBadGateway, `upstream down`, "status 502"},
		"error with 200":   {http.StatusOK, `{"trace":[],"error":"compilation failed"}`, "compilation failed"},
		"non-object frame": {http.StatusOK, `{"trace":[[1,2]]}`, "frame 0"},
		"garbage":          {http.StatusOK, `not json`, "decode"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			_, err := NewClient(server.URL, time.Second).Generate(context.Background(), "bubble_sort", []int{1})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestClientGenerateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url, time.Second).Generate(context.Background(), "bubble_sort", []int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to call trace generator")
}
