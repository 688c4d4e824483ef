// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package internal_artifact holds finalized recording blobs for the current
// session and hands out revocable object URLs. Nothing is persisted; a
// revoked or replaced blob is gone.
package internal_artifact

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// URLPrefix is the path prefix under which the control surface serves blobs.
const URLPrefix = "/artifacts/"

// Blob is one downloadable artifact.
type Blob struct {
	ID        string
	FileName  string
	Mime      string
	Data      []byte
	CreatedAt time.Time
}

// Store is an in-memory object-URL registry.
type Store struct {
	mu    sync.Mutex
	blobs map[string]*Blob
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{blobs: make(map[string]*Blob)}
}

// Create registers data under a fresh object URL and returns the URL.
func (s *Store) Create(data []byte, mime, fileName string) string {
	b := &Blob{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Mime:      mime,
		Data:      data,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.blobs[b.ID] = b
	s.mu.Unlock()
	return URLPrefix + b.ID + "/" + b.FileName
}

// Revoke removes the blob behind url. Unknown or already-revoked URLs are
// ignored.
func (s *Store) Revoke(url string) {
	id := idFromURL(url)
	if id == "" {
		return
	}
	s.mu.Lock()
	delete(s.blobs, id)
	s.mu.Unlock()
}

// Get returns the blob with the given id.
func (s *Store) Get(id string) (*Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[id]
	return b, ok
}

func idFromURL(url string) string {
	rest, ok := strings.CutPrefix(url, URLPrefix)
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}
