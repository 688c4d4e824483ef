// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_codec

import (
	"encoding/binary"
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

const maxOpusPacketBytes = 4000

// OpusDecoder decodes opus packets into LINEAR16 PCM at the negotiated rate.
type OpusDecoder struct {
	dec *opus.Decoder
	pcm []int16
}

// NewOpusDecoder builds a decoder for the negotiated audio format.
func NewOpusDecoder() (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(SampleRate, Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	return &OpusDecoder{
		dec: dec,
		// Opus packets carry at most 120ms of audio.
		pcm: make([]int16, 6*FrameSamples),
	}, nil
}

// Decode decodes one opus packet. An empty payload yields empty PCM.
func (d *OpusDecoder) Decode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	n, err := d.dec.Decode(payload, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode: %w", err)
	}
	out := make([]byte, n*BytesPerSample)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(d.pcm[i]))
	}
	return out, nil
}

// OpusEncoder encodes LINEAR16 PCM into opus packets, one full frame at a
// time; partial frames are carried over to the next call.
type OpusEncoder struct {
	enc     *opus.Encoder
	pending []int16
	packet  []byte
}

// NewOpusEncoder builds a VoIP-tuned encoder for the negotiated format.
func NewOpusEncoder(bitrate int) (*OpusEncoder, error) {
	enc, err := opus.NewEncoder(SampleRate, Channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}
	if bitrate > 0 {
		if err := enc.SetBitrate(bitrate); err != nil {
			return nil, fmt.Errorf("failed to set opus bitrate: %w", err)
		}
	}
	return &OpusEncoder{
		enc:    enc,
		packet: make([]byte, maxOpusPacketBytes),
	}, nil
}

// Encode appends pcm to the pending frame buffer and returns one encoded
// packet per completed frame. Returns no packets when no frame completed yet.
func (e *OpusEncoder) Encode(pcm []byte) ([][]byte, error) {
	for i := 0; i+BytesPerSample <= len(pcm); i += BytesPerSample {
		e.pending = append(e.pending, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}

	var out [][]byte
	for len(e.pending) >= FrameSamples {
		frame := e.pending[:FrameSamples]
		n, err := e.enc.Encode(frame, e.packet)
		if err != nil {
			return nil, fmt.Errorf("opus encode: %w", err)
		}
		out = append(out, append([]byte(nil), e.packet[:n]...))
		e.pending = e.pending[FrameSamples:]
	}
	if len(e.pending) == 0 {
		e.pending = nil
	}
	return out, nil
}
