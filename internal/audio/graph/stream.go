// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_graph

// StreamChannelSize bounds the sink stream. At 20ms per merged frame this
// holds roughly ten seconds of audio before old frames are discarded.
const StreamChannelSize = 500

// MediaStream is the recordable stream produced by the sink: a bounded
// queue of interleaved stereo PCM frames consumed by the capture device.
type MediaStream struct {
	frames chan []byte
}

func newMediaStream() *MediaStream {
	return &MediaStream{frames: make(chan []byte, StreamChannelSize)}
}

// Frames returns the frame queue. The stream is never closed; consumers stop
// on their own signal so a stopped capture device can be restarted against
// the same stream.
func (s *MediaStream) Frames() <-chan []byte {
	return s.frames
}

// Depth reports how many frames are queued and unconsumed.
func (s *MediaStream) Depth() int {
	return len(s.frames)
}

// push enqueues one frame, discarding the oldest pending frame on overflow
// so a stalled consumer sees fresh audio rather than a growing backlog.
func (s *MediaStream) push(frame []byte) {
	for {
		select {
		case s.frames <- frame:
			return
		default:
			select {
			case <-s.frames:
			default:
			}
		}
	}
}

// StreamDestination is the recording sink node: everything written to it
// appears on its MediaStream.
type StreamDestination struct {
	stream *MediaStream
}

// NewStreamDestination builds a sink with a fresh stream.
func NewStreamDestination() *StreamDestination {
	return &StreamDestination{stream: newMediaStream()}
}

// Stream returns the sink's recordable stream.
func (d *StreamDestination) Stream() *MediaStream {
	return d.stream
}

// WriteStereo accepts one interleaved stereo PCM frame.
func (d *StreamDestination) WriteStereo(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	d.stream.push(pcm)
}
