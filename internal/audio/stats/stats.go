// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package internal_stats exposes audio-path health counters to the control
// surface. Producers register an accessor; until one is registered every
// snapshot is zero.
package internal_stats

import "sync"

// Snapshot is one point-in-time read of the audio counters.
type Snapshot struct {
	MicOverflows     int64 `json:"mic_overflows"`
	SpeakerUnderruns int64 `json:"speaker_underruns"`
	QueueSize        int   `json:"queue_size"`
}

// Accessor produces the current counters on demand.
type Accessor func() Snapshot

// Registry hands snapshots to readers without coupling them to the audio
// path's lifecycle.
type Registry struct {
	mu       sync.Mutex
	accessor Accessor
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetAccessor installs or replaces the counter source. A nil accessor
// resets the registry to zero snapshots.
func (r *Registry) SetAccessor(a Accessor) {
	r.mu.Lock()
	r.accessor = a
	r.mu.Unlock()
}

// Snapshot reads the current counters.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	a := r.accessor
	r.mu.Unlock()
	if a == nil {
		return Snapshot{}
	}
	return a()
}
