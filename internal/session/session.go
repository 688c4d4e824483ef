// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	internal_type "github.com/rapidaai/voicebridge/internal/type"
	"github.com/rapidaai/voicebridge/pkg/commons"
	"github.com/rapidaai/voicebridge/pkg/utils"
)

// Status is the connection status of a session.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

const (
	handshakeTimeout = 30 * time.Second
	maxMessageSize   = 10 * 1024 * 1024
)

// AudioDecoder turns one wire audio payload into PCM. The session owns wire
// framing only; the codec is injected.
type AudioDecoder interface {
	Decode(payload []byte) ([]byte, error)
}

// Callbacks are the session's outward notifications. OnDisconnect runs
// synchronously with the disconnect, before OnStatus, so dependents (the
// recorder) reach a safe state before any observer re-reads session state.
type Callbacks struct {
	OnStatus     func(Status)
	OnDisconnect func()
	OnPacket     func(internal_type.Packet)
}

// Controller owns one network conversation: transport lifecycle, the
// configuration-first handshake, and the status state machine
// disconnected → connecting → connected → disconnected. Once a session that
// reached connected disconnects, the terminal ended flag is set; a concluded
// conversation is reset, never reconnected.
type Controller struct {
	logger    commons.Logger
	endpoint  string
	dialer    *websocket.Dialer
	decoder   AudioDecoder
	callbacks Callbacks

	mu      sync.Mutex
	writeMu sync.Mutex

	conn           *websocket.Conn
	status         Status
	ended          bool
	wasConnected   bool
	configSent     bool
	closeRequested bool
	sessionID      string

	voicePrompt string
	textPrompt  string
	seed        int32
}

// NewController builds a session controller for the given endpoint. The seed
// is drawn once here and survives until Reset, so restarting the same
// conversation replays the same generation seed.
func NewController(logger commons.Logger, endpoint, voicePrompt, textPrompt string, decoder AudioDecoder, callbacks Callbacks) *Controller {
	return &Controller{
		logger:      logger,
		endpoint:    endpoint,
		dialer:      &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		decoder:     decoder,
		callbacks:   callbacks,
		status:      StatusDisconnected,
		voicePrompt: voicePrompt,
		textPrompt:  textPrompt,
		seed:        utils.SessionSeed(),
	}
}

// Status returns the current connection status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Ended reports whether a session that reached connected has concluded.
func (c *Controller) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

// SessionID returns the identifier of the current (or last) session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Seed returns the configuration seed for the current session.
func (c *Controller) Seed() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seed
}

// Start opens the transport unless a connection attempt is already underway
// or established, and writes the configuration payload as the first protocol
// message before any reader or sender runs.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusConnecting
	c.closeRequested = false
	c.configSent = false
	c.wasConnected = false
	c.sessionID = uuid.NewString()
	sessionID := c.sessionID
	c.mu.Unlock()
	c.notifyStatus(StatusConnecting)

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		c.logger.Errorf("session %s: failed to connect to %s: %v", sessionID, c.endpoint, err)
		c.handleDisconnect(internal_type.DisconnectReasonTransportError)
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}
	conn.SetReadLimit(maxMessageSize)

	c.mu.Lock()
	if c.closeRequested {
		// Stop raced the dial; abandon in place.
		c.mu.Unlock()
		_ = conn.Close()
		c.handleDisconnect(internal_type.DisconnectReasonUser)
		return nil
	}
	c.conn = conn
	c.mu.Unlock()

	if err := c.sendConfiguration(); err != nil {
		_ = conn.Close()
		c.handleDisconnect(internal_type.DisconnectReasonTransportError)
		return err
	}

	c.mu.Lock()
	c.status = StatusConnected
	c.wasConnected = true
	c.mu.Unlock()
	c.notifyStatus(StatusConnected)
	c.logger.Infof("session %s: connected to %s", sessionID, c.endpoint)

	// The read loop's lifetime is bound to the connection, never to the
	// caller's context: a request-scoped caller may already be cancelled by
	// the time the goroutine is scheduled, and the session must still hear
	// remote closes. ctx governs the dial above only.
	utils.Go(context.Background(), func() { c.readLoop(conn, sessionID) })
	return nil
}

// Stop closes the transport. Idempotent; safe while still connecting.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.status == StatusDisconnected {
		c.mu.Unlock()
		return
	}
	c.closeRequested = true
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		c.writeMu.Unlock()
		_ = conn.Close()
	}
	c.handleDisconnect(internal_type.DisconnectReasonUser)
}

// Reset returns a concluded controller to its initial state: status
// disconnected, ended cleared, a fresh seed for the next conversation.
func (c *Controller) Reset() {
	c.Stop()
	c.mu.Lock()
	c.ended = false
	c.wasConnected = false
	c.configSent = false
	c.sessionID = ""
	c.seed = utils.SessionSeed()
	c.mu.Unlock()
	c.logger.Debug("session controller reset")
}

// SendAudio writes one encoded audio payload. Refused until the
// configuration has been sent, preserving configuration-first ordering.
func (c *Controller) SendAudio(payload []byte) error {
	return c.sendFrame(TagAudio, payload)
}

// SendRestart asks the remote service to restart the conversation on the
// open transport.
func (c *Controller) SendRestart() error {
	return c.sendFrame(TagControl, []byte{ControlRestart})
}

func (c *Controller) sendFrame(tag byte, payload []byte) error {
	c.mu.Lock()
	conn := c.conn
	ready := c.configSent && c.status == StatusConnected
	c.mu.Unlock()

	if conn == nil || !ready {
		return fmt.Errorf("session is not connected")
	}

	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, tag)
	frame = append(frame, payload...)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// sendConfiguration writes the configuration payload. It bypasses sendFrame
// on purpose: it is the only traffic allowed before configSent flips.
func (c *Controller) sendConfiguration() error {
	c.mu.Lock()
	payload := ConfigPayload{
		VoicePrompt: c.voicePrompt,
		TextPrompt:  c.textPrompt,
		Seed:        c.seed,
	}
	conn := c.conn
	c.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send configuration: %w", err)
	}

	c.mu.Lock()
	c.configSent = true
	c.mu.Unlock()
	return nil
}

func (c *Controller) readLoop(conn *websocket.Conn, sessionID string) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			reason := internal_type.DisconnectReasonTransportError
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reason = internal_type.DisconnectReasonRemote
			}
			c.mu.Lock()
			if c.conn != conn {
				// A newer connection replaced this one; its teardown already ran.
				c.mu.Unlock()
				return
			}
			requested := c.closeRequested
			c.mu.Unlock()
			if requested {
				reason = internal_type.DisconnectReasonUser
			} else {
				c.logger.Warnf("session %s: transport closed: %v", sessionID, err)
			}
			c.handleDisconnect(reason)
			return
		}
		if len(message) == 0 {
			continue
		}
		c.dispatch(sessionID, message[0], message[1:])
	}
}

func (c *Controller) dispatch(sessionID string, tag byte, payload []byte) {
	switch tag {
	case TagHandshake:
		c.logger.Debugf("session %s: handshake received", sessionID)
		c.notifyPacket(internal_type.HandshakePacket{SessionID: sessionID})
	case TagAudio:
		pcm, err := c.decoder.Decode(payload)
		if err != nil {
			c.logger.Errorf("session %s: failed to decode audio frame: %v", sessionID, err)
			return
		}
		if len(pcm) > 0 {
			c.notifyPacket(internal_type.RemoteAudioPacket{SessionID: sessionID, PCM: pcm})
		}
	case TagText:
		c.notifyPacket(internal_type.TranscriptPacket{SessionID: sessionID, Text: string(payload)})
	default:
		c.logger.Warnf("session %s: unknown frame tag 0x%02x", sessionID, tag)
	}
}

// handleDisconnect is the single funnel for every disconnect cause. It is
// idempotent per connection; the recorder stop runs synchronously before the
// status observers so no recording outlives its session.
func (c *Controller) handleDisconnect(reason internal_type.DisconnectReason) {
	c.mu.Lock()
	if c.status == StatusDisconnected && c.conn == nil {
		c.mu.Unlock()
		return
	}
	c.status = StatusDisconnected
	if c.wasConnected {
		c.ended = true
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	if c.callbacks.OnDisconnect != nil {
		c.callbacks.OnDisconnect()
	}
	c.notifyPacket(internal_type.DisconnectPacket{SessionID: sessionID, Reason: reason})
	c.notifyStatus(StatusDisconnected)
	c.logger.Infof("session %s: disconnected (%s)", sessionID, reason)
}

func (c *Controller) notifyStatus(status Status) {
	if c.callbacks.OnStatus != nil {
		c.callbacks.OnStatus(status)
	}
}

func (c *Controller) notifyPacket(p internal_type.Packet) {
	if c.callbacks.OnPacket != nil {
		c.callbacks.OnPacket(p)
	}
}
