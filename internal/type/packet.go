// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

// Packet is one unit of session traffic flowing from the transport to the
// orchestration layer. The session identifier travels with every packet so
// late deliveries from a previous session can be told apart after a restart.
type Packet interface {
	SessionId() string
}

// HandshakePacket signals that the remote service accepted the configuration
// and is ready for audio.
type HandshakePacket struct {
	SessionID string
}

func (p HandshakePacket) SessionId() string { return p.SessionID }

// RemoteAudioPacket carries one span of decoded remote PCM (mono LINEAR16 at
// the negotiated sample rate).
type RemoteAudioPacket struct {
	SessionID string
	PCM       []byte
}

func (p RemoteAudioPacket) SessionId() string { return p.SessionID }

// TranscriptPacket carries one incremental transcript fragment.
type TranscriptPacket struct {
	SessionID string
	Text      string
}

func (p TranscriptPacket) SessionId() string { return p.SessionID }

// DisconnectPacket reports that the session ended, locally or remotely.
type DisconnectPacket struct {
	SessionID string
	Reason    DisconnectReason
}

func (p DisconnectPacket) SessionId() string { return p.SessionID }

// DisconnectReason describes why a session was torn down.
type DisconnectReason string

const (
	DisconnectReasonUser             DisconnectReason = "user"              // local stop request
	DisconnectReasonRemote           DisconnectReason = "remote"            // remote closed the transport
	DisconnectReasonTransportError   DisconnectReason = "transport_error"   // read/write failure
	DisconnectReasonContextCancelled DisconnectReason = "context_cancelled" // parent context cancelled
	DisconnectReasonUnknown          DisconnectReason = "unknown"
)
