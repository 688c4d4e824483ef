// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_codec "github.com/rapidaai/voicebridge/internal/audio/codec"
	internal_graph "github.com/rapidaai/voicebridge/internal/audio/graph"
	internal_stats "github.com/rapidaai/voicebridge/internal/audio/stats"
	internal_session "github.com/rapidaai/voicebridge/internal/session"
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

func newTestOrchestrator(t *testing.T, endpoint string) (*Orchestrator, *fakeRecorder, *internal_graph.Graph, *internal_stats.Registry) {
	t.Helper()
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)
	graph := internal_graph.NewGraph(logger)
	rec := &fakeRecorder{}
	stats := internal_stats.NewRegistry()
	o := New(logger, graph, rec, stats, internal_codec.PCMPassthrough{}, internal_codec.PCMPassthrough{},
		endpoint, "NATF0.pt", "You are a helpful assistant.")
	return o, rec, graph, stats
}

// ============================================================================
// Status classifications
// ============================================================================

func TestStatusColor(t *testing.T) {
	assert.Equal(t, "green", StatusColor(internal_session.StatusConnected))
	assert.Equal(t, "amber", StatusColor(internal_session.StatusConnecting))
	assert.Equal(t, "red", StatusColor(internal_session.StatusDisconnected))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Connecting...", StatusLabel(internal_session.StatusConnecting))
	assert.Equal(t, "Disconnect", StatusLabel(internal_session.StatusConnected))
	assert.Equal(t, "New Conversation", StatusLabel(internal_session.StatusDisconnected),
		"a concluded and a never-started conversation offer the same action")
}

// ============================================================================
// Facade behavior
// ============================================================================

func TestOrchestrator_InitialState(t *testing.T) {
	o, _, _, stats := newTestOrchestrator(t, "ws://127.0.0.1:1/ws")

	assert.True(t, o.AudioReady())
	assert.True(t, o.PrimaryActionEnabled())
	assert.Empty(t, o.Transcript())
	assert.Equal(t, internal_session.StatusDisconnected, o.Session().Status())
	assert.Equal(t, internal_stats.Snapshot{}, stats.Snapshot(), "counters start at zero")
}

func TestOrchestrator_DisconnectStopsRecorder(t *testing.T) {
	o, rec, _, _ := newTestOrchestrator(t, "ws://127.0.0.1:1/ws")

	// The dial target is unreachable; the failed attempt runs the full
	// disconnect path, which must stop any recording.
	err := o.ConnectOrReset(context.Background())
	require.Error(t, err)
	assert.GreaterOrEqual(t, rec.stops, 1, "disconnect must stop the recorder")
	assert.Equal(t, internal_session.StatusDisconnected, o.Session().Status())
}

func TestOrchestrator_RecordingDelegation(t *testing.T) {
	o, rec, _, _ := newTestOrchestrator(t, "ws://127.0.0.1:1/ws")
	rec.url = "/artifacts/abc/personaplex-recording.wav"

	require.NoError(t, o.StartRecording())
	o.StopRecording()
	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, 1, rec.stops)
	assert.Equal(t, rec.url, o.ArtifactURL())
}

func TestOrchestrator_Teardown(t *testing.T) {
	o, rec, _, _ := newTestOrchestrator(t, "ws://127.0.0.1:1/ws")

	o.Teardown()
	assert.Equal(t, 1, rec.stops)
	assert.Equal(t, internal_session.StatusDisconnected, o.Session().Status())
}

// ============================================================================
// Microphone tee
// ============================================================================

func TestMicSink_FeedsGraphWhileDisconnected(t *testing.T) {
	o, _, graph, _ := newTestOrchestrator(t, "ws://127.0.0.1:1/ws")
	graph.WireForRecording()

	o.MicSink().WritePCM([]byte{0x11, 0x22})
	graph.Remote().Push([]byte{0xAA, 0xBB})

	select {
	case frame := <-graph.SinkStream().Frames():
		assert.Equal(t, []byte{0xAA, 0xBB, 0x11, 0x22}, frame,
			"microphone audio reaches the mix even with no live session")
	default:
		t.Fatal("no mixed frame reached the sink")
	}
}

// ============================================================================
// Statistics accessor
// ============================================================================

func TestOrchestrator_StatsReflectGraph(t *testing.T) {
	o, _, graph, stats := newTestOrchestrator(t, "ws://127.0.0.1:1/ws")
	graph.WireForRecording()

	graph.Remote().Push([]byte{0xAA, 0xBB}) // no mic audio: silence padded
	got := stats.Snapshot()
	assert.Equal(t, int64(1), got.SpeakerUnderruns)
	assert.Equal(t, 1, got.QueueSize)
	assert.True(t, o.AudioReady())
}
