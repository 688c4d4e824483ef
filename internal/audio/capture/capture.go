// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package internal_capture feeds local microphone audio into the mix graph.
// The microphone itself lives outside the process; this package reads the
// raw LINEAR16 stream it produces (a pipe or FIFO) frame by frame.
package internal_capture

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rapidaai/voicebridge/pkg/commons"
	"github.com/rapidaai/voicebridge/pkg/utils"

	internal_codec "github.com/rapidaai/voicebridge/internal/audio/codec"
	internal_graph "github.com/rapidaai/voicebridge/internal/audio/graph"
)

// PCMReaderSource pumps fixed-size PCM frames from a reader into a graph
// input. One source runs one pump at a time.
type PCMReaderSource struct {
	logger commons.Logger
	input  internal_graph.Input

	mu      sync.Mutex
	running bool
	gen     int
	cancel  context.CancelFunc
}

// NewPCMReaderSource builds a source writing into input.
func NewPCMReaderSource(logger commons.Logger, input internal_graph.Input) *PCMReaderSource {
	return &PCMReaderSource{logger: logger, input: input}
}

// Start begins pumping frames from r until the reader ends, Stop is called,
// or ctx is cancelled. Starting a running source is a no-op.
func (p *PCMReaderSource) Start(ctx context.Context, r io.Reader) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.gen++
	gen := p.gen
	utils.Go(ctx, func() {
		p.pump(ctx, r)
		p.mu.Lock()
		// A newer pump may have started since; only the current one may
		// mark the source stopped.
		if p.gen == gen {
			p.running = false
		}
		p.mu.Unlock()
	})
}

// Stop ends the pump. The in-flight read finishes before the goroutine exits.
func (p *PCMReaderSource) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	p.cancel()
}

func (p *PCMReaderSource) pump(ctx context.Context, r io.Reader) {
	frame := make([]byte, internal_codec.FrameBytes)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := io.ReadFull(r, frame)
		if n > 0 {
			pcm := make([]byte, n)
			copy(pcm, frame[:n])
			p.input.WritePCM(pcm)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				p.logger.Warnf("microphone stream ended: %v", err)
			} else {
				p.logger.Debug("microphone stream drained")
			}
			return
		}
	}
}
