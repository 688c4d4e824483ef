// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

// Recorder drives one start-to-stop recording lifecycle over the mix graph.
type Recorder interface {
	// Start wires the mix graph for recording and begins capture. Calling it
	// while already recording is a no-op.
	Start() error
	// Stop unwires the recording route and asks the capture device to finish;
	// the finalized artifact appears asynchronously. Calling it while not
	// recording is a no-op.
	Stop()
	// ArtifactURL returns the object URL of the most recently finalized
	// recording, or "" when none exists.
	ArtifactURL() string
}
