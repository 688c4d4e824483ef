// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package utils

import "math/rand/v2"

// SessionSeed returns a non-negative seed for one conversation session.
// The remote service treats the seed as the generation seed for the whole
// conversation, so it is drawn once per session and reused on restart only
// after an explicit reset.
func SessionSeed() int32 {
	return rand.Int32()
}
