// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_recorder

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	wavHeaderSize = 44
	// placeholderSize marks chunk lengths in a streaming header. The real
	// lengths are unknown until capture ends and get patched in by
	// FixDuration.
	placeholderSize = 0xFFFFFFFF
)

// Format describes one supported recording container.
type Format struct {
	Mime      string
	Extension string
	// NeedsDurationFix is set for containers whose streamed header carries
	// placeholder lengths that must be rewritten after capture.
	NeedsDurationFix bool
}

var formats = map[string]Format{
	"audio/wav": {Mime: "audio/wav", Extension: ".wav", NeedsDurationFix: true},
	"audio/ogg": {Mime: "audio/ogg", Extension: ".ogg", NeedsDurationFix: false},
}

// FormatForMime resolves mime to a supported format, falling back to WAV.
func FormatForMime(mime string) Format {
	if f, ok := formats[mime]; ok {
		return f
	}
	return formats["audio/wav"]
}

// RecordingFileName is the download name given to every finalized artifact.
func RecordingFileName(f Format) string {
	return "personaplex-recording" + f.Extension
}

// StreamingWAVHeader builds a 44-byte PCM WAV header whose chunk sizes are
// placeholders. It is emitted as the very first capture fragment so the
// blob is a WAV container from the first byte.
func StreamingWAVHeader(sampleRate, channels int) []byte {
	buf := new(bytes.Buffer)
	bytesPerSample := 2

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(placeholderSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*bytesPerSample))
	binary.Write(buf, binary.LittleEndian, uint16(channels*bytesPerSample))
	binary.Write(buf, binary.LittleEndian, uint16(8*bytesPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(placeholderSize))

	return buf.Bytes()
}

// FixDuration rewrites the RIFF and data chunk lengths of a finalized WAV
// blob so players report the correct duration. The returned slice is a
// corrected copy; blob is left untouched.
func FixDuration(blob []byte) ([]byte, error) {
	if len(blob) < wavHeaderSize {
		return nil, fmt.Errorf("blob too short for a wav container: %d bytes", len(blob))
	}
	if string(blob[0:4]) != "RIFF" || string(blob[8:12]) != "WAVE" {
		return nil, fmt.Errorf("blob is not a riff/wave container")
	}
	if string(blob[36:40]) != "data" {
		return nil, fmt.Errorf("data chunk not at expected offset")
	}
	fixed := make([]byte, len(blob))
	copy(fixed, blob)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(len(fixed)-8))
	binary.LittleEndian.PutUint32(fixed[40:44], uint32(len(fixed)-wavHeaderSize))
	return fixed, nil
}
