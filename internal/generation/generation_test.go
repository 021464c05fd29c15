package generation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blackscar-server/internal/config"
	"blackscar-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		AIClientType:            config.AIClientTypeOpenAI,
		AIBaseURL:               baseURL,
		AIModel:                 "gpt-4o-mini",
		AITimeout:               5 * time.Second,
		AIMaxTokens:             512,
		AITemperature:           0.7,
		AIAPIKey:                "sk-test",
		ImageBaseURL:            baseURL,
		ImageModel:              "dall-e-3",
		ImageSize:               "1024x1024",
		ImageTimeout:            5 * time.Second,
		ImagePublicBaseURL:      "/images/",
		ImagePromptStyleSuffix:  " | scene-style",
		ImageInitialStyleSuffix: " | start-style",
		SpeechBaseURL:           baseURL,
		SpeechModel:             "tts-1",
		SpeechVoice:             "onyx",
		SpeechTimeout:           5 * time.Second,
	}
}

func chatCompletionBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 80, "total_tokens": 200},
	}
}

func TestSceneService_OpenAI(t *testing.T) {
	var gotRequest map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		content := `{"description":"D1","agent_prompt":"P1","situation_context":"C1"}`
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionBody(content))
	}))
	defer server.Close()

	client, err := NewTextClient(testConfig(server.URL), zap.NewNop())
	require.NoError(t, err)
	svc := NewSceneService(client, "narrate", zap.NewNop())
	require.True(t, svc.IsConfigured())

	scene, err := svc.GenerateNextScene(context.Background(), "C0", "run", 47.6, 52.2)
	require.NoError(t, err)
	assert.Equal(t, &models.GameScene{Description: "D1", AgentPrompt: "P1", SituationContext: "C1"}, scene)

	assert.Equal(t, "gpt-4o-mini", gotRequest["model"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, gotRequest["response_format"])
	messages := gotRequest["messages"].([]interface{})
	require.Len(t, messages, 2)
	user := messages[1].(map[string]interface{})
	assert.JSONEq(t, `{"situation_context":"C0","player_action":"run","morale":48,"power":52}`, user["content"].(string))
}

func TestSceneService_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		cfg := testConfig("http://127.0.0.1:1")
		cfg.AIAPIKey = ""
		client, err := NewTextClient(cfg, zap.NewNop())
		require.NoError(t, err)
		svc := NewSceneService(client, "narrate", zap.NewNop())

		assert.False(t, svc.IsConfigured())
		_, err = svc.GenerateNextScene(context.Background(), "", "run", 50, 50)
		require.ErrorIs(t, err, models.ErrConfiguration)
	})

	t.Run("upstream failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		}))
		defer server.Close()

		client, err := NewTextClient(testConfig(server.URL), zap.NewNop())
		require.NoError(t, err)
		_, err = NewSceneService(client, "narrate", zap.NewNop()).GenerateNextScene(context.Background(), "", "run", 50, 50)
		require.ErrorIs(t, err, models.ErrGeneration)
	})

	t.Run("invalid scene", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(chatCompletionBody(`{"description":"only text"}`))
		}))
		defer server.Close()

		client, err := NewTextClient(testConfig(server.URL), zap.NewNop())
		require.NoError(t, err)
		_, err = NewSceneService(client, "narrate", zap.NewNop()).GenerateNextScene(context.Background(), "", "run", 50, 50)
		require.ErrorIs(t, err, models.ErrGeneration)
	})
}

func TestSceneService_Ollama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json", req["format"])
		assert.Equal(t, false, req["stream"])

		content := "```json\n{\"description\":\"D1\",\"agent_prompt\":\"P1\",\"situation_context\":\"C1\"}\n```"
		w.Header().Set("Content-Type", "application/x-ndjson")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":             "llama3",
			"created_at":        time.Now().UTC().Format(time.RFC3339Nano),
			"message":           map[string]string{"role": "assistant", "content": content},
			"done":              true,
			"prompt_eval_count": 30,
			"eval_count":        40,
		})
	}))
	defer server.Close()

	cfg := testConfig(server.URL + "/v1")
	cfg.AIClientType = config.AIClientTypeOllama
	cfg.AIModel = "llama3"
	cfg.AIAPIKey = ""

	client, err := NewTextClient(cfg, zap.NewNop())
	require.NoError(t, err)
	svc := NewSceneService(client, "narrate", zap.NewNop())
	require.True(t, svc.IsConfigured(), "local models need no key")

	scene, err := svc.GenerateNextScene(context.Background(), "", "wake up", 50, 50)
	require.NoError(t, err)
	assert.Equal(t, "C1", scene.SituationContext)
}

func TestNewTextClient_UnknownType(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.AIClientType = "gemini"
	_, err := NewTextClient(cfg, zap.NewNop())
	require.Error(t, err)
}

func TestParseScene(t *testing.T) {
	scene, err := parseScene("Here you go:\n{\"description\":\" D \",\"agent_prompt\":\" P \",\"situation_context\":\"C\"}\nThanks")
	require.NoError(t, err)
	assert.Equal(t, "D", scene.Description)
	assert.Equal(t, "P", scene.AgentPrompt)

	_, err = parseScene("not json at all")
	require.ErrorIs(t, err, models.ErrGeneration)

	_, err = parseScene(`{"description":"D","agent_prompt":"   "}`)
	require.ErrorIs(t, err, models.ErrGeneration)
}

func TestImageService_SavesFileAndReturnsURL(t *testing.T) {
	png := []byte("\x89PNG fake image")
	var gotPrompts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		var req map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "b64_json", req["response_format"])
		gotPrompts = append(gotPrompts, req["prompt"].(string))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"created": 1,
			"data":    []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(png)}},
		})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.ImageSavePath = filepath.Join(t.TempDir(), "images")
	svc, err := NewImageService(cfg, zap.NewNop())
	require.NoError(t, err)

	url, err := svc.GenerateSceneImage(context.Background(), "soldier bleeding hand", true)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/images/"), url)
	assert.False(t, strings.Contains(url, "//"))

	saved, err := os.ReadFile(filepath.Join(cfg.ImageSavePath, strings.TrimPrefix(url, "/images/")))
	require.NoError(t, err)
	assert.Equal(t, png, saved)

	_, err = svc.GenerateSceneImage(context.Background(), "D1", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"soldier bleeding hand | start-style", "D1 | scene-style"}, gotPrompts)
}

func TestImageService_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"created": 1, "data": []interface{}{}})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.ImageSavePath = t.TempDir()
	svc, err := NewImageService(cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = svc.GenerateSceneImage(context.Background(), "D1", false)
	require.ErrorIs(t, err, models.ErrGeneration)

	cfg.AIAPIKey = ""
	noKey, err := NewImageService(cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = noKey.GenerateSceneImage(context.Background(), "D1", false)
	require.ErrorIs(t, err, models.ErrGeneration)
	require.ErrorIs(t, err, models.ErrConfiguration)
}

func TestSpeechService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		var req map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["input"] == "fail" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":{"message":"tts down"}}`))
			return
		}
		assert.Equal(t, "onyx", req["voice"])
		assert.Equal(t, "mp3", req["response_format"])
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	defer server.Close()

	svc := NewSpeechService(testConfig(server.URL), zap.NewNop())
	assert.Equal(t, "mp3", svc.AudioFormat())

	audio, err := svc.SpeakLine(context.Background(), "«اصمد»")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-audio"), audio)

	_, err = svc.SpeakLine(context.Background(), "fail")
	require.ErrorIs(t, err, models.ErrSynthesis)

	_, err = svc.SpeakLine(context.Background(), "  ")
	require.ErrorIs(t, err, models.ErrSynthesis)
}

func TestLoadPrompt(t *testing.T) {
	prompt, err := LoadPrompt("", ScenePromptName)
	require.NoError(t, err)
	assert.Contains(t, prompt, "situation_context")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ScenePromptName), []byte("custom prompt\n"), 0o600))
	prompt, err = LoadPrompt(dir, ScenePromptName)
	require.NoError(t, err)
	assert.Equal(t, "custom prompt", prompt)

	_, err = LoadPrompt(dir, "missing.md")
	require.Error(t, err)
}
