// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_recorder

import (
	"context"
	"sync"
	"time"

	"github.com/rapidaai/voicebridge/pkg/commons"
	"github.com/rapidaai/voicebridge/pkg/utils"

	internal_graph "github.com/rapidaai/voicebridge/internal/audio/graph"
)

// CaptureDevice consumes the mixed stereo stream and emits container
// fragments on a timeslice cadence. The final fragment is always delivered
// to the data handler before the stop handler fires.
type CaptureDevice interface {
	SetHandlers(onData func([]byte), onStop func())
	Start(stream *internal_graph.MediaStream) error
	Stop()
}

// StreamCapture is the WAV capture device. Its first fragment is a
// streaming container header; every later fragment is raw interleaved PCM.
type StreamCapture struct {
	logger     commons.Logger
	sampleRate int
	channels   int
	timeslice  time.Duration

	onData func([]byte)
	onStop func()

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewStreamCapture builds a capture device emitting one fragment per
// timeslice interval.
func NewStreamCapture(logger commons.Logger, sampleRate, channels int, timeslice time.Duration) *StreamCapture {
	return &StreamCapture{
		logger:     logger,
		sampleRate: sampleRate,
		channels:   channels,
		timeslice:  timeslice,
	}
}

func (s *StreamCapture) SetHandlers(onData func([]byte), onStop func()) {
	s.onData = onData
	s.onStop = onStop
}

// Start begins draining stream. Calling Start on a running device is an
// error in the caller; it is ignored here.
func (s *StreamCapture) Start(stream *internal_graph.MediaStream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	utils.Go(context.Background(), func() {
		s.loop(stream, s.stopCh)
	})
	return nil
}

// Stop asks the capture loop to finish. The final fragment and the stop
// notification arrive asynchronously on the capture goroutine.
func (s *StreamCapture) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

func (s *StreamCapture) loop(stream *internal_graph.MediaStream, stopCh chan struct{}) {
	ticker := time.NewTicker(s.timeslice)
	defer ticker.Stop()

	var pending []byte
	headerSent := false

	emit := func() {
		if !headerSent {
			headerSent = true
			fragment := StreamingWAVHeader(s.sampleRate, s.channels)
			fragment = append(fragment, pending...)
			pending = nil
			s.onData(fragment)
			return
		}
		if len(pending) == 0 {
			return
		}
		fragment := pending
		pending = nil
		s.onData(fragment)
	}

	for {
		select {
		case frame := <-stream.Frames():
			pending = append(pending, frame...)
		case <-ticker.C:
			emit()
		case <-stopCh:
			// Drain whatever the sink managed to push before teardown.
			for {
				select {
				case frame := <-stream.Frames():
					pending = append(pending, frame...)
					continue
				default:
				}
				break
			}
			emit()
			s.logger.Debug("capture loop finished")
			s.onStop()
			return
		}
	}
}
