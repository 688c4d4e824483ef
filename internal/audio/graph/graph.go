// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package internal_graph models the recording mix graph: a remote-audio
// source node, a two-channel merger, and a stream-destination sink. The
// graph exists solely to produce a recordable stereo stream; playback of
// remote audio is a separate fan-out edge owned by the playback collaborator.
package internal_graph

import (
	"errors"
	"sync"

	"github.com/rapidaai/voicebridge/pkg/commons"
)

var (
	// ErrAlreadyConnected is returned when connecting an edge that exists.
	ErrAlreadyConnected = errors.New("graph: nodes already connected")
	// ErrNotConnected is returned when disconnecting an edge that does not exist.
	ErrNotConnected = errors.New("graph: nodes not connected")
)

// RemoteSource is the node carrying decoded remote audio. Push fans the PCM
// out to every connected input (the recording merger, the playback path).
type RemoteSource struct {
	mu    sync.Mutex
	sinks []Input
}

// NewRemoteSource builds an unconnected remote source.
func NewRemoteSource() *RemoteSource {
	return &RemoteSource{}
}

// Connect adds a directed edge source → dst.
func (r *RemoteSource) Connect(dst Input) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sinks {
		if s == dst {
			return ErrAlreadyConnected
		}
	}
	r.sinks = append(r.sinks, dst)
	return nil
}

// Disconnect removes the edge source → dst.
func (r *RemoteSource) Disconnect(dst Input) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sinks {
		if s == dst {
			r.sinks = append(r.sinks[:i], r.sinks[i+1:]...)
			return nil
		}
	}
	return ErrNotConnected
}

// Push delivers one span of mono PCM to every connected input.
func (r *RemoteSource) Push(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	r.mu.Lock()
	sinks := make([]Input, len(r.sinks))
	copy(sinks, r.sinks)
	r.mu.Unlock()
	for _, s := range sinks {
		s.WritePCM(pcm)
	}
}

// Graph owns the recording mix nodes for one mounted session and maintains
// the single-active-wiring invariant: re-wiring always tears the previous
// route down first, tolerating edges that are already gone.
type Graph struct {
	logger commons.Logger

	remote *RemoteSource
	merger *ChannelMerger
	sink   *StreamDestination

	mu    sync.Mutex
	wired bool
}

// NewGraph constructs the graph nodes once; they live until the session
// unmounts. Nothing is wired yet.
func NewGraph(logger commons.Logger) *Graph {
	return &Graph{
		logger: logger,
		remote: NewRemoteSource(),
		merger: NewChannelMerger(),
		sink:   NewStreamDestination(),
	}
}

// Remote returns the remote-audio source node.
func (g *Graph) Remote() *RemoteSource { return g.remote }

// MicInput returns merger channel 1 for the external capture collaborator.
// The graph never connects or disconnects this edge itself; capture-device
// ownership stays outside the recording core.
func (g *Graph) MicInput() Input { return g.merger.Input(MergerChannelMic) }

// SinkStream returns the recordable stream behind the sink node.
func (g *Graph) SinkStream() *MediaStream { return g.sink.Stream() }

// MicOverflows counts microphone backlog trims inside the merger.
func (g *Graph) MicOverflows() int64 { return g.merger.Overflows() }

// SilencePadded counts merged spans that had no microphone audio for part
// of the remote span.
func (g *Graph) SilencePadded() int64 { return g.merger.Padded() }

// QueueDepth reports frames pending on the recording stream.
func (g *Graph) QueueDepth() int { return g.sink.Stream().Depth() }

// Wired reports whether the recording route is currently established.
func (g *Graph) Wired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.wired
}

// WireForRecording establishes remote → merger(0) and merger → sink. Any
// previous wiring is torn down first, so calling this twice leaves exactly
// one active route.
func (g *Graph) WireForRecording() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.disconnectIfConnected()

	if err := g.remote.Connect(g.merger.Input(MergerChannelRemote)); err != nil {
		g.logger.Warnf("graph: remote → merger connect: %v", err)
	}
	if err := g.merger.ConnectOutput(g.sink); err != nil {
		g.logger.Warnf("graph: merger → sink connect: %v", err)
	}
	g.wired = true
}

// UnwireForRecording removes the recording route. Safe whether or not the
// edges currently exist.
func (g *Graph) UnwireForRecording() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disconnectIfConnected()
	g.wired = false
}

// disconnectIfConnected removes both recording edges, treating a missing
// edge as already done. Callers hold g.mu.
func (g *Graph) disconnectIfConnected() {
	if err := g.remote.Disconnect(g.merger.Input(MergerChannelRemote)); err != nil && !errors.Is(err, ErrNotConnected) {
		g.logger.Warnf("graph: remote → merger disconnect: %v", err)
	}
	if err := g.merger.DisconnectOutput(g.sink); err != nil && !errors.Is(err, ErrNotConnected) {
		g.logger.Warnf("graph: merger → sink disconnect: %v", err)
	}
}
