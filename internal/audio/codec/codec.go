// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_codec

// Audio format negotiated with the conversational service: 24kHz mono
// LINEAR16, 20ms frames.
const (
	SampleRate     = 24000
	Channels       = 1
	FrameSamples   = 480 // 20ms at 24kHz
	BytesPerSample = 2
	FrameBytes     = FrameSamples * BytesPerSample
)

// Decoder turns one wire audio payload into LINEAR16 PCM.
type Decoder interface {
	Decode(payload []byte) ([]byte, error)
}

// Encoder turns LINEAR16 PCM into wire audio payloads, one payload per
// completed frame. Input shorter than a full frame is buffered; Encode
// returns no payloads until a frame completes.
type Encoder interface {
	Encode(pcm []byte) ([][]byte, error)
}

// PCMPassthrough implements both interfaces without transcoding. Used when
// the peer speaks raw LINEAR16, and by tests.
type PCMPassthrough struct{}

func (PCMPassthrough) Decode(payload []byte) ([]byte, error) { return payload, nil }

func (PCMPassthrough) Encode(pcm []byte) ([][]byte, error) {
	if len(pcm) == 0 {
		return nil, nil
	}
	return [][]byte{pcm}, nil
}
