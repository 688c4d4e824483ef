// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// SameOriginMarker is the logical worker address meaning "the service is
// served from the same host and port as the control surface".
const SameOriginMarker = "same-origin"

// ExecutionContext carries the host, port and security context of the
// control surface. Passing it explicitly keeps endpoint resolution a pure
// function, testable without any server running.
type ExecutionContext struct {
	Host   string
	Port   int
	Secure bool
}

// ResolveEndpoint resolves the worker address into a websocket URL. The
// same-origin marker maps to the execution context's own host and port; an
// explicit host:port is used as given. A secure context selects wss.
func ResolveEndpoint(ec ExecutionContext, workerAddr, path string) string {
	scheme := "ws"
	if ec.Secure {
		scheme = "wss"
	}

	host := workerAddr
	if workerAddr == SameOriginMarker {
		host = net.JoinHostPort(ec.Host, strconv.Itoa(ec.Port))
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := url.URL{Scheme: scheme, Host: host, Path: path}
	return u.String()
}
