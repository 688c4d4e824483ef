// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package utils

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Go runs fn on a new goroutine, recovering panics so a background worker
// can never take the process down. The recovered value is reported through
// the returned channel-free contract: callers that care about completion
// should coordinate through their own context or channels.
func Go(ctx context.Context, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				// Keep the stack; losing it makes background panics undiagnosable.
				fmt.Printf("recovered panic in background goroutine: %v\n%s", r, debug.Stack())
			}
		}()
		if ctx.Err() != nil {
			return
		}
		fn()
	}()
}
