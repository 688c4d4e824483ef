// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package internal_orchestrator binds the session, the mix graph and the
// recorder into one conversation facade. It owns the traffic routing
// between them: remote audio into the graph, microphone audio out to the
// wire, recorder teardown on disconnect.
package internal_orchestrator

import (
	"context"
	"sync"

	"github.com/rapidaai/voicebridge/pkg/commons"

	internal_codec "github.com/rapidaai/voicebridge/internal/audio/codec"
	internal_graph "github.com/rapidaai/voicebridge/internal/audio/graph"
	internal_stats "github.com/rapidaai/voicebridge/internal/audio/stats"
	internal_session "github.com/rapidaai/voicebridge/internal/session"
	internal_type "github.com/rapidaai/voicebridge/internal/type"
)

const maxTranscriptLines = 200

// StatusColor classifies a session status for the status indicator:
// connected, connecting, everything else.
func StatusColor(s internal_session.Status) string {
	switch s {
	case internal_session.StatusConnected:
		return "green"
	case internal_session.StatusConnecting:
		return "amber"
	default:
		return "red"
	}
}

// StatusLabel classifies the primary action for display. The label depends
// on status alone: a disconnected controller always offers a new
// conversation, whether the previous one concluded or never started.
func StatusLabel(s internal_session.Status) string {
	switch s {
	case internal_session.StatusConnecting:
		return "Connecting..."
	case internal_session.StatusConnected:
		return "Disconnect"
	default:
		return "New Conversation"
	}
}

// Orchestrator is the conversation facade consumed by the control surface.
type Orchestrator struct {
	logger   commons.Logger
	graph    *internal_graph.Graph
	recorder internal_type.Recorder
	encoder  internal_codec.Encoder
	session  *internal_session.Controller

	mu         sync.Mutex
	transcript []string
}

// New wires an orchestrator over the given graph, recorder and codec pair.
// The session controller is created here so its callbacks can route through
// the orchestrator.
func New(
	logger commons.Logger,
	graph *internal_graph.Graph,
	recorder internal_type.Recorder,
	stats *internal_stats.Registry,
	encoder internal_codec.Encoder,
	decoder internal_session.AudioDecoder,
	endpoint, voicePrompt, textPrompt string,
) *Orchestrator {
	o := &Orchestrator{
		logger:   logger,
		graph:    graph,
		recorder: recorder,
		encoder:  encoder,
	}
	o.session = internal_session.NewController(logger, endpoint, voicePrompt, textPrompt, decoder, internal_session.Callbacks{
		OnStatus:     o.onStatus,
		OnDisconnect: o.onSessionDisconnect,
		OnPacket:     o.onPacket,
	})
	stats.SetAccessor(func() internal_stats.Snapshot {
		return internal_stats.Snapshot{
			MicOverflows:     graph.MicOverflows(),
			SpeakerUnderruns: graph.SilencePadded(),
			QueueSize:        graph.QueueDepth(),
		}
	})
	return o
}

// Session exposes the underlying session controller.
func (o *Orchestrator) Session() *internal_session.Controller { return o.session }

// MicSink returns the graph input local microphone audio should be written
// to. Frames fan out to the mix graph and, when a session is live, to the
// wire.
func (o *Orchestrator) MicSink() internal_graph.Input {
	return micTee{o: o}
}

type micTee struct {
	o *Orchestrator
}

func (t micTee) WritePCM(pcm []byte) {
	t.o.graph.MicInput().WritePCM(pcm)
	t.o.sendMic(pcm)
}

func (o *Orchestrator) sendMic(pcm []byte) {
	if o.session.Status() != internal_session.StatusConnected {
		return
	}
	payloads, err := o.encoder.Encode(pcm)
	if err != nil {
		o.logger.Errorf("failed to encode microphone frame: %v", err)
		return
	}
	for _, payload := range payloads {
		if err := o.session.SendAudio(payload); err != nil {
			o.logger.Debugf("dropping microphone frame: %v", err)
			return
		}
	}
}

// AudioReady reports whether the audio path exists; recording controls are
// withheld until it does.
func (o *Orchestrator) AudioReady() bool {
	return o.graph != nil
}

// PrimaryActionEnabled reports whether the connect/disconnect action may be
// invoked. It is withheld only while a connection attempt is in flight.
func (o *Orchestrator) PrimaryActionEnabled() bool {
	return o.session.Status() != internal_session.StatusConnecting
}

// ConnectOrReset is the primary action. A concluded conversation is fully
// reset and a fresh one started; otherwise it toggles connect/disconnect.
func (o *Orchestrator) ConnectOrReset(ctx context.Context) error {
	if o.session.Ended() {
		o.session.Reset()
		o.clearTranscript()
		return o.session.Start(ctx)
	}
	if o.session.Status() == internal_session.StatusDisconnected {
		o.clearTranscript()
		return o.session.Start(ctx)
	}
	o.session.Stop()
	return nil
}

// StartRecording begins a recording pass over the live mix.
func (o *Orchestrator) StartRecording() error {
	return o.recorder.Start()
}

// StopRecording ends the current recording pass.
func (o *Orchestrator) StopRecording() {
	o.recorder.Stop()
}

// ArtifactURL returns the object URL of the last finalized recording.
func (o *Orchestrator) ArtifactURL() string {
	return o.recorder.ArtifactURL()
}

// Transcript returns the accumulated transcript lines of the current
// conversation.
func (o *Orchestrator) Transcript() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.transcript))
	copy(out, o.transcript)
	return out
}

// Teardown stops any active recording and the session. Used on shutdown.
func (o *Orchestrator) Teardown() {
	o.recorder.Stop()
	o.session.Stop()
}

func (o *Orchestrator) onStatus(s internal_session.Status) {
	o.logger.Debugf("session status: %s", s)
}

// onSessionDisconnect runs synchronously inside the disconnect, before any
// status observer, so no recording outlives its session.
func (o *Orchestrator) onSessionDisconnect() {
	o.recorder.Stop()
}

func (o *Orchestrator) onPacket(p internal_type.Packet) {
	switch pkt := p.(type) {
	case internal_type.RemoteAudioPacket:
		o.graph.Remote().Push(pkt.PCM)
	case internal_type.TranscriptPacket:
		o.appendTranscript(pkt.Text)
	case internal_type.HandshakePacket:
		o.logger.Infof("session %s: remote service ready", pkt.SessionID)
	case internal_type.DisconnectPacket:
		o.logger.Debugf("session %s: disconnect packet (%s)", pkt.SessionID, pkt.Reason)
	}
}

func (o *Orchestrator) appendTranscript(text string) {
	if text == "" {
		return
	}
	o.mu.Lock()
	o.transcript = append(o.transcript, text)
	if len(o.transcript) > maxTranscriptLines {
		o.transcript = o.transcript[len(o.transcript)-maxTranscriptLines:]
	}
	o.mu.Unlock()
}

func (o *Orchestrator) clearTranscript() {
	o.mu.Lock()
	o.transcript = nil
	o.mu.Unlock()
}
