package provider

import (
	"context"
	"strings"
	"sync"
)

// Mock is a scriptable in-process provider for tests and offline use.
type Mock struct {
	mu sync.Mutex

	// Response is returned by Generate and streamed by GenerateStream.
	Response Response

	// Err fails every call when set.
	Err error

	// StreamErr fails the stream after all chunks are delivered.
	StreamErr error

	// ChunkSize sets the streamed fragment length in bytes; 0 streams
	// word by word.
	ChunkSize int

	// Requests records every request received.
	Requests []Request
}

// Name implements Provider.
func (m *Mock) Name() string { return "mock" }

// Generate implements Provider.
func (m *Mock) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	resp, err := m.Response, m.Err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	out := resp
	return &out, nil
}

// GenerateStream implements Provider.
func (m *Mock) GenerateStream(ctx context.Context, req Request) (*Stream, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	resp, err, streamErr, size := m.Response, m.Err, m.StreamErr, m.ChunkSize
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	chunks := split(resp.Text, size)
	return NewStream(ctx, func(emit func(string) bool) error {
		for _, c := range chunks {
			if !emit(c) {
				return ctx.Err()
			}
		}
		return streamErr
	}), nil
}

// split cuts text into chunks of size bytes, or word-ish fragments that
// keep trailing spaces when size is zero.
func split(text string, size int) []string {
	if size > 0 {
		var out []string
		for len(text) > size {
			out = append(out, text[:size])
			text = text[size:]
		}
		if text != "" {
			out = append(out, text)
		}
		return out
	}
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == ' ' || r == '\n' {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
