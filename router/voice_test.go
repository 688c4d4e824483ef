// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package voice_routers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_artifact "github.com/rapidaai/voicebridge/internal/artifact"
	internal_codec "github.com/rapidaai/voicebridge/internal/audio/codec"
	internal_graph "github.com/rapidaai/voicebridge/internal/audio/graph"
	internal_stats "github.com/rapidaai/voicebridge/internal/audio/stats"
	internal_orchestrator "github.com/rapidaai/voicebridge/internal/orchestrator"
	"github.com/rapidaai/voicebridge/config"
	"github.com/rapidaai/voicebridge/pkg/commons"
)

// ============================================================================
// Test helpers
// ============================================================================

type fakeRecorder struct {
	starts int
	stops  int
	url    string
}

func (f *fakeRecorder) Start() error        { f.starts++; return nil }
func (f *fakeRecorder) Stop()               { f.stops++ }
func (f *fakeRecorder) ArtifactURL() string { return f.url }

func newTestEngine(t *testing.T) (*gin.Engine, *fakeRecorder, *internal_artifact.Store) {
	t.Helper()
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)

	cfg := &config.AppConfig{}
	graph := internal_graph.NewGraph(logger)
	rec := &fakeRecorder{}
	store := internal_artifact.NewStore()
	stats := internal_stats.NewRegistry()
	orch := internal_orchestrator.New(logger, graph, rec, stats,
		internal_codec.PCMPassthrough{}, internal_codec.PCMPassthrough{},
		"ws://127.0.0.1:1/ws", "NATF0.pt", "You are a helpful assistant.")

	engine := SetupEngine(cfg, logger)
	VoiceApiRoute(cfg, engine, logger, orch, store, stats)
	return engine, rec, store
}

func doRequest(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

// ============================================================================
// Engine setup
// ============================================================================

func TestSetupEngine_ModeFollowsLogLevel(t *testing.T) {
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)

	engine := SetupEngine(&config.AppConfig{LogLevel: "debug"}, logger)
	assert.Equal(t, gin.DebugMode, gin.Mode())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := doRequest(engine, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, w.Code, "the request log middleware must pass requests through")

	SetupEngine(&config.AppConfig{LogLevel: "info"}, logger)
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
}

// ============================================================================
// Status
// ============================================================================

func TestGetStatus(t *testing.T) {
	engine, rec, _ := newTestEngine(t)
	rec.url = "/artifacts/abc/personaplex-recording.wav"

	w := doRequest(engine, http.MethodGet, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "disconnected", body["status"])
	assert.Equal(t, "red", body["color"])
	assert.Equal(t, "New Conversation", body["label"])
	assert.Equal(t, false, body["ended"])
	assert.Equal(t, true, body["primary_action_enabled"])
	assert.Equal(t, true, body["can_record"])
	assert.Equal(t, rec.url, body["artifact_url"])
}

// ============================================================================
// Session toggle
// ============================================================================

func TestToggleSession_UnreachableWorker(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	w := doRequest(engine, http.MethodPost, "/api/v1/session")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// ============================================================================
// Recording control
// ============================================================================

func TestRecordingControl(t *testing.T) {
	engine, rec, _ := newTestEngine(t)

	w := doRequest(engine, http.MethodPost, "/api/v1/recording/start")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, rec.starts)

	w = doRequest(engine, http.MethodPost, "/api/v1/recording/stop")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, rec.stops)
}

// ============================================================================
// Artifact download
// ============================================================================

func TestDownloadArtifact(t *testing.T) {
	engine, _, store := newTestEngine(t)

	url := store.Create([]byte("audio-bytes"), "audio/wav", "personaplex-recording.wav")

	w := doRequest(engine, http.MethodGet, url)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio-bytes", w.Body.String())
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "personaplex-recording.wav")
}

func TestDownloadArtifact_NotFound(t *testing.T) {
	engine, _, store := newTestEngine(t)

	w := doRequest(engine, http.MethodGet, "/artifacts/unknown/personaplex-recording.wav")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Right id, wrong filename.
	url := store.Create([]byte("audio"), "audio/wav", "personaplex-recording.wav")
	wrong := strings.TrimSuffix(url, "personaplex-recording.wav") + "other.wav"
	w = doRequest(engine, http.MethodGet, wrong)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ============================================================================
// Statistics
// ============================================================================

func TestGetStats(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	w := doRequest(engine, http.MethodGet, "/api/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var snap internal_stats.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, internal_stats.Snapshot{}, snap)
}
