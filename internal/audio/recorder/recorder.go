// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package internal_recorder turns the mixed conversation stream into a
// downloadable artifact. A recording pass wires the mix graph, accumulates
// capture fragments, and on stop finalizes them into a single blob with
// corrected container lengths.
package internal_recorder

import (
	"bytes"
	"sync"

	"github.com/rapidaai/voicebridge/pkg/commons"

	internal_artifact "github.com/rapidaai/voicebridge/internal/artifact"
	internal_graph "github.com/rapidaai/voicebridge/internal/audio/graph"
)

type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
)

// Controller drives one recording pass at a time.
//
// Stop unwires the graph before signaling the device, so no frame produced
// after teardown can reach the capture stream. Finalization happens on the
// device's capture goroutine when the final fragment has been delivered.
type Controller struct {
	logger commons.Logger
	graph  *internal_graph.Graph
	device CaptureDevice
	store  *internal_artifact.Store
	format Format

	mu          sync.Mutex
	state       State
	fragments   [][]byte
	artifactURL string
}

// NewController builds a recorder over graph and device, storing finalized
// blobs in store under the container resolved from mime.
func NewController(logger commons.Logger, graph *internal_graph.Graph, device CaptureDevice, store *internal_artifact.Store, mime string) *Controller {
	c := &Controller{
		logger: logger,
		graph:  graph,
		device: device,
		store:  store,
		format: FormatForMime(mime),
		state:  StateIdle,
	}
	device.SetHandlers(c.onFragment, c.onCaptureStopped)
	return c
}

// State reports the current recorder state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ArtifactURL returns the object URL of the most recent finalized
// recording, or "" when none exists.
func (c *Controller) ArtifactURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifactURL
}

// Start begins a recording pass. A previous artifact is revoked: only one
// recording per session survives. Calls outside Idle are no-ops.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return nil
	}
	if c.artifactURL != "" {
		c.store.Revoke(c.artifactURL)
		c.artifactURL = ""
	}
	c.fragments = nil
	c.graph.WireForRecording()
	if err := c.device.Start(c.graph.SinkStream()); err != nil {
		c.graph.UnwireForRecording()
		return err
	}
	c.state = StateRecording
	c.logger.Infow("recording started", "mime", c.format.Mime)
	return nil
}

// Stop ends the current recording pass. Unwiring precedes the device stop
// signal; the artifact appears once the device reports the final fragment.
// Calls outside Recording are no-ops.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.state = StateFinalizing
	c.mu.Unlock()

	c.graph.UnwireForRecording()
	c.device.Stop()
}

func (c *Controller) onFragment(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return
	}
	c.fragments = append(c.fragments, data)
}

func (c *Controller) onCaptureStopped() {
	c.mu.Lock()
	fragments := c.fragments
	c.fragments = nil
	c.mu.Unlock()

	blob := bytes.Join(fragments, nil)
	if c.format.NeedsDurationFix {
		fixed, err := FixDuration(blob)
		if err != nil {
			c.logger.Warnf("duration fix failed, keeping uncorrected recording: %v", err)
		} else {
			blob = fixed
		}
	}
	url := c.store.Create(blob, c.format.Mime, RecordingFileName(c.format))

	c.mu.Lock()
	c.artifactURL = url
	c.state = StateIdle
	c.mu.Unlock()

	c.logger.Infow("recording finalized", "url", url, "bytes", len(blob))
}
