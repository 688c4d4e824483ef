// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package voice_routers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	internal_artifact "github.com/rapidaai/voicebridge/internal/artifact"
	internal_stats "github.com/rapidaai/voicebridge/internal/audio/stats"
	internal_orchestrator "github.com/rapidaai/voicebridge/internal/orchestrator"
	"github.com/rapidaai/voicebridge/config"
	"github.com/rapidaai/voicebridge/pkg/commons"
)

// VoiceApi serves the conversation control surface: session toggling,
// recording control, artifact download and audio statistics.
type VoiceApi struct {
	cfg    *config.AppConfig
	logger commons.Logger
	orch   *internal_orchestrator.Orchestrator
	store  *internal_artifact.Store
	stats  *internal_stats.Registry
}

// SetupEngine builds the gin engine shared by every route group. The
// configured log level selects the gin mode and every request is logged
// through the application logger.
func SetupEngine(cfg *config.AppConfig, logger commons.Logger) *gin.Engine {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))
	return engine
}

// requestLogger records every request at debug level through the
// application logger.
func requestLogger(logger commons.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugw("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

// VoiceApiRoute registers the conversation control routes on engine.
func VoiceApiRoute(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	orch *internal_orchestrator.Orchestrator,
	store *internal_artifact.Store,
	stats *internal_stats.Registry,
) {
	api := &VoiceApi{cfg: cfg, logger: logger, orch: orch, store: store, stats: stats}
	apiv1 := engine.Group("/api/v1")
	{
		apiv1.GET("/status", api.GetStatus)
		apiv1.POST("/session", api.ToggleSession)
		apiv1.POST("/recording/start", api.StartRecording)
		apiv1.POST("/recording/stop", api.StopRecording)
		apiv1.GET("/stats", api.GetStats)
	}
	engine.GET(internal_artifact.URLPrefix+":id/:filename", api.DownloadArtifact)
}

// GetStatus reports the conversation state the way a status indicator and
// primary action control would consume it.
func (a *VoiceApi) GetStatus(c *gin.Context) {
	session := a.orch.Session()
	status := session.Status()
	ended := session.Ended()
	c.JSON(http.StatusOK, gin.H{
		"status":                 status,
		"color":                  internal_orchestrator.StatusColor(status),
		"label":                  internal_orchestrator.StatusLabel(status),
		"ended":                  ended,
		"session_id":             session.SessionID(),
		"primary_action_enabled": a.orch.PrimaryActionEnabled(),
		"can_record":             a.orch.AudioReady(),
		"artifact_url":           a.orch.ArtifactURL(),
		"transcript":             a.orch.Transcript(),
	})
}

// ToggleSession is the primary action: connect, disconnect, or reset a
// concluded conversation and connect fresh.
func (a *VoiceApi) ToggleSession(c *gin.Context) {
	if !a.orch.PrimaryActionEnabled() {
		c.JSON(http.StatusConflict, gin.H{"error": "connection attempt in progress"})
		return
	}
	if err := a.orch.ConnectOrReset(c.Request.Context()); err != nil {
		a.logger.Errorf("primary action failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": a.orch.Session().Status()})
}

func (a *VoiceApi) StartRecording(c *gin.Context) {
	if !a.orch.AudioReady() {
		c.JSON(http.StatusConflict, gin.H{"error": "audio path not ready"})
		return
	}
	if err := a.orch.StartRecording(); err != nil {
		a.logger.Errorf("failed to start recording: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recording": true})
}

func (a *VoiceApi) StopRecording(c *gin.Context) {
	if !a.orch.AudioReady() {
		c.JSON(http.StatusConflict, gin.H{"error": "audio path not ready"})
		return
	}
	a.orch.StopRecording()
	c.JSON(http.StatusOK, gin.H{"recording": false})
}

// DownloadArtifact serves a finalized recording as a file download.
func (a *VoiceApi) DownloadArtifact(c *gin.Context) {
	blob, ok := a.store.Get(c.Param("id"))
	if !ok || blob.FileName != c.Param("filename") {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+blob.FileName+`"`)
	c.Data(http.StatusOK, blob.Mime, blob.Data)
}

func (a *VoiceApi) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.stats.Snapshot())
}
