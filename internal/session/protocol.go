// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

// Binary frame tags used by the conversational service. Every frame after
// the JSON configuration message starts with one tag byte.
const (
	TagHandshake byte = 0x00 // server → client: session accepted, audio may flow
	TagAudio     byte = 0x01 // both ways: opus-encoded audio payload
	TagText      byte = 0x02 // server → client: UTF-8 transcript fragment
	TagControl   byte = 0x03 // client → server: control opcode payload
)

// Control opcodes carried in TagControl frames.
const (
	ControlRestart byte = 0x03 // restart the conversation on the open transport
)

// ConfigPayload is the one-time session configuration. It must be the first
// message written on a freshly opened transport, before any other traffic.
type ConfigPayload struct {
	VoicePrompt string `json:"voice_prompt"`
	TextPrompt  string `json:"text_prompt"`
	Seed        int32  `json:"seed"`
}
