package ai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/interrogation/internal/ai"
	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/testhelpers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, timeout time.Duration, handler http.HandlerFunc) *ai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return ai.NewClientWithConfig(cfg, "", timeout, ai.ScriptedResponder{}, testhelpers.NewLogger(io.Discard))
}

func TestClient_Respond(t *testing.T) {
	t.Parallel()
	suspect := models.Suspect{ID: 3, Name: "Bob Johnson", Rank: models.RankSeniorCommander}

	c := newTestClient(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, openai.GPT3Dot5Turbo, req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[0].Content, "Bob Johnson")
			assert.Equal(t, "Where were you last night?", req.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","choices":[`+
			`{"index":0,"message":{"role":"assistant","content":"Somewhere you were not."},"finish_reason":"stop"}]}`)
	})

	answer, err := c.Respond(context.Background(), suspect, "Where were you last night?")
	require.NoError(t, err)
	require.Equal(t, "Somewhere you were not.", answer)
}

func TestClient_RespondFallsBack(t *testing.T) {
	t.Parallel()
	suspect := models.Suspect{ID: 1, Name: "John Doe", Rank: models.RankFootSoldier}
	want, err := ai.ScriptedResponder{}.Respond(context.Background(), suspect, "Who sent you?")
	require.NoError(t, err)

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusInternalServerError)
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"id":"chatcmpl-2","choices":[]}`)
			},
		},
		{
			name: "stalled",
			handler: func(_ http.ResponseWriter, r *http.Request) {
				<-r.Context().Done()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, 100*time.Millisecond, tt.handler)
			answer, err := c.Respond(context.Background(), suspect, "Who sent you?")
			require.NoError(t, err)
			require.Equal(t, want, answer)
		})
	}
}

func TestScriptedResponder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for _, rank := range models.Ranks() {
		suspect := models.Suspect{ID: 1, Name: "Diana Prince", Rank: rank}
		first, err := ai.ScriptedResponder{}.Respond(ctx, suspect, "Talk!")
		require.NoError(t, err)
		require.NotEmpty(t, first)
		again, err := ai.ScriptedResponder{}.Respond(ctx, suspect, "  talk!  ")
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
	require.True(t, strings.Contains(ai.Temperament("unknown"), "foot soldier"))
}
