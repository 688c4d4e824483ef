// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_graph

import (
	"bytes"
	"sync"
	"sync/atomic"
)

const (
	// MergerChannelRemote and MergerChannelMic name the merger inputs.
	// Remote audio occupies channel 0 (left), the local microphone channel 1
	// (right), matching the recording layout.
	MergerChannelRemote = 0
	MergerChannelMic    = 1

	bytesPerSample = 2 // LINEAR16

	// maxMicBacklogBytes bounds unconsumed microphone audio: ten seconds of
	// 24kHz mono LINEAR16. Remote audio drives the merge clock, so a mic
	// feeding faster than the remote talks would otherwise grow unbounded.
	maxMicBacklogBytes = 10 * 24000 * bytesPerSample
)

// Input is a node input port accepting mono LINEAR16 PCM.
type Input interface {
	WritePCM(pcm []byte)
}

// StereoSink consumes interleaved stereo PCM.
type StereoSink interface {
	WriteStereo(pcm []byte)
}

// ChannelMerger combines two mono inputs into one interleaved stereo output.
// Remote writes drive timing: each write on channel 0 emits an equal span of
// stereo, pairing it with pending microphone audio and padding with silence
// when the microphone lags. Microphone writes only buffer.
type ChannelMerger struct {
	mu  sync.Mutex
	mic bytes.Buffer
	dst StereoSink

	remoteIn *mergerPort
	micIn    *mergerPort

	overflows atomic.Int64
	padded    atomic.Int64
}

// NewChannelMerger builds a two-channel merger. Ports are created once so
// they stay identity-comparable across connect/disconnect cycles.
func NewChannelMerger() *ChannelMerger {
	m := &ChannelMerger{}
	m.remoteIn = &mergerPort{merger: m, channel: MergerChannelRemote}
	m.micIn = &mergerPort{merger: m, channel: MergerChannelMic}
	return m
}

// Input returns the stable port for the given channel.
func (m *ChannelMerger) Input(channel int) Input {
	if channel == MergerChannelMic {
		return m.micIn
	}
	return m.remoteIn
}

// ConnectOutput attaches the merger's stereo output to dst.
func (m *ChannelMerger) ConnectOutput(dst StereoSink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dst != nil {
		return ErrAlreadyConnected
	}
	m.dst = dst
	return nil
}

// DisconnectOutput detaches the stereo output. Pending microphone backlog is
// dropped with the edge: the next wiring starts from a clean timeline.
func (m *ChannelMerger) DisconnectOutput(dst StereoSink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dst == nil || m.dst != dst {
		return ErrNotConnected
	}
	m.dst = nil
	m.mic.Reset()
	return nil
}

type mergerPort struct {
	merger  *ChannelMerger
	channel int
}

func (p *mergerPort) WritePCM(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	if p.channel == MergerChannelMic {
		p.merger.writeMic(pcm)
		return
	}
	p.merger.writeRemote(pcm)
}

func (m *ChannelMerger) writeMic(pcm []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mic.Write(pcm)
	if excess := m.mic.Len() - maxMicBacklogBytes; excess > 0 {
		m.mic.Next(excess)
		m.overflows.Add(1)
	}
}

// Overflows counts microphone backlog trims.
func (m *ChannelMerger) Overflows() int64 { return m.overflows.Load() }

// Padded counts remote spans that needed silence on the microphone channel.
func (m *ChannelMerger) Padded() int64 { return m.padded.Load() }

func (m *ChannelMerger) writeRemote(pcm []byte) {
	m.mu.Lock()
	dst := m.dst
	if dst == nil {
		m.mu.Unlock()
		return
	}
	mic := make([]byte, len(pcm))
	n, _ := m.mic.Read(mic)
	for i := n; i < len(mic); i++ {
		mic[i] = 0 // silence where the microphone lags
	}
	m.mu.Unlock()
	if n < len(mic) {
		m.padded.Add(1)
	}

	dst.WriteStereo(interleave(pcm, mic))
}

// interleave pairs two equal-length mono LINEAR16 buffers sample by sample
// into one stereo buffer: left from channel 0, right from channel 1.
func interleave(left, right []byte) []byte {
	out := make([]byte, 0, len(left)*2)
	for i := 0; i+bytesPerSample <= len(left); i += bytesPerSample {
		out = append(out, left[i], left[i+1])
		if i+bytesPerSample <= len(right) {
			out = append(out, right[i], right[i+1])
		} else {
			out = append(out, 0, 0)
		}
	}
	return out
}
