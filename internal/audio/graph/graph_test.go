// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidaai/voicebridge/pkg/commons"
)

// ============================================================================
// Test helpers
// ============================================================================

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)
	return NewGraph(logger)
}

// drain pulls every queued frame off the sink stream.
func drain(g *Graph) [][]byte {
	var out [][]byte
	for {
		select {
		case frame := <-g.SinkStream().Frames():
			out = append(out, frame)
		default:
			return out
		}
	}
}

// ============================================================================
// Wiring
// ============================================================================

func TestGraph_WireAndUnwire(t *testing.T) {
	g := newTestGraph(t)
	assert.False(t, g.Wired())

	g.WireForRecording()
	assert.True(t, g.Wired())

	g.UnwireForRecording()
	assert.False(t, g.Wired())
}

func TestGraph_WireIsSingleActive(t *testing.T) {
	g := newTestGraph(t)

	g.WireForRecording()
	// A second wire tears the first down and wires fresh instead of failing.
	g.WireForRecording()
	assert.True(t, g.Wired())

	g.Remote().Push([]byte{1, 0, 2, 0})
	frames := drain(g)
	require.Len(t, frames, 1, "exactly one edge into the sink may exist")
}

func TestGraph_UnwiredRemoteAudioIsDiscarded(t *testing.T) {
	g := newTestGraph(t)

	g.Remote().Push([]byte{1, 0, 2, 0})
	assert.Empty(t, drain(g), "remote audio must not reach the sink while unwired")
}

func TestGraph_UnwireWhileUnwiredIsNoop(t *testing.T) {
	g := newTestGraph(t)
	g.UnwireForRecording()
	assert.False(t, g.Wired())
}

// ============================================================================
// Edge errors
// ============================================================================

func TestRemoteSource_DoubleConnect(t *testing.T) {
	r := NewRemoteSource()
	m := NewChannelMerger()
	in := m.Input(MergerChannelRemote)

	require.NoError(t, r.Connect(in))
	assert.ErrorIs(t, r.Connect(in), ErrAlreadyConnected)

	require.NoError(t, r.Disconnect(in))
	assert.ErrorIs(t, r.Disconnect(in), ErrNotConnected)
}

func TestChannelMerger_OutputEdge(t *testing.T) {
	m := NewChannelMerger()
	sink := NewStreamDestination()

	require.NoError(t, m.ConnectOutput(sink))
	assert.ErrorIs(t, m.ConnectOutput(sink), ErrAlreadyConnected)

	require.NoError(t, m.DisconnectOutput(sink))
	assert.ErrorIs(t, m.DisconnectOutput(sink), ErrNotConnected)
}

// ============================================================================
// Mixing
// ============================================================================

func TestGraph_RemoteLeftMicRight(t *testing.T) {
	g := newTestGraph(t)
	g.WireForRecording()

	g.MicInput().WritePCM([]byte{0x11, 0x22, 0x33, 0x44})
	g.Remote().Push([]byte{0xAA, 0xBB, 0xCC, 0xDD})

	frames := drain(g)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{
		0xAA, 0xBB, 0x11, 0x22, // sample 0: remote left, mic right
		0xCC, 0xDD, 0x33, 0x44, // sample 1
	}, frames[0])
}

func TestGraph_MicLagPadsSilence(t *testing.T) {
	g := newTestGraph(t)
	g.WireForRecording()

	g.Remote().Push([]byte{0xAA, 0xBB, 0xCC, 0xDD})

	frames := drain(g)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{
		0xAA, 0xBB, 0x00, 0x00,
		0xCC, 0xDD, 0x00, 0x00,
	}, frames[0])
	assert.Equal(t, int64(1), g.SilencePadded())
}

func TestGraph_MicOnlyBuffers(t *testing.T) {
	g := newTestGraph(t)
	g.WireForRecording()

	g.MicInput().WritePCM([]byte{1, 2, 3, 4})
	assert.Empty(t, drain(g), "microphone writes alone must not emit stereo")

	// The buffered mic audio pairs with the next remote span.
	g.Remote().Push([]byte{5, 6, 7, 8})
	frames := drain(g)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{5, 6, 1, 2, 7, 8, 3, 4}, frames[0])
}

func TestGraph_UnwireDropsMicBacklog(t *testing.T) {
	g := newTestGraph(t)
	g.WireForRecording()
	g.MicInput().WritePCM([]byte{1, 2, 3, 4})
	g.UnwireForRecording()

	g.WireForRecording()
	g.Remote().Push([]byte{5, 6, 7, 8})
	frames := drain(g)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{5, 6, 0, 0, 7, 8, 0, 0}, frames[0],
		"a fresh wiring starts from a clean mic timeline")
}

func TestChannelMerger_BacklogBound(t *testing.T) {
	m := NewChannelMerger()
	sink := NewStreamDestination()
	require.NoError(t, m.ConnectOutput(sink))

	span := make([]byte, maxMicBacklogBytes)
	m.Input(MergerChannelMic).WritePCM(span)
	m.Input(MergerChannelMic).WritePCM([]byte{1, 2})
	assert.Equal(t, int64(1), m.Overflows(), "backlog beyond the bound is trimmed")
}

// ============================================================================
// Sink stream
// ============================================================================

func TestMediaStream_DropOldestOnOverflow(t *testing.T) {
	s := newMediaStream()
	for i := 0; i < StreamChannelSize+1; i++ {
		s.push([]byte{byte(i)})
	}
	assert.Equal(t, StreamChannelSize, s.Depth())

	first := <-s.Frames()
	assert.Equal(t, []byte{1}, first, "the oldest frame is the one discarded")
}
