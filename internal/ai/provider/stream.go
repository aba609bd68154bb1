package provider

import "context"

// Stream delivers a generation incrementally. Chunks is closed when the
// generation finishes for any reason; Wait then reports the outcome.
type Stream struct {
	ch   chan string
	done chan struct{}
	err  error
}

// NewStream runs produce on its own goroutine, feeding chunks to the
// consumer through emit. The producer's return value becomes the
// stream's final error. emit returns false once ctx is done; producers
// should stop sending when it does.
func NewStream(ctx context.Context, produce func(emit func(string) bool) error) *Stream {
	s := &Stream{
		ch:   make(chan string, 16),
		done: make(chan struct{}),
	}
	emit := func(chunk string) bool {
		select {
		case s.ch <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}
	go func() {
		err := produce(emit)
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		s.err = err
		close(s.ch)
		close(s.done)
	}()
	return s
}

// Chunks returns the channel of text fragments.
func (s *Stream) Chunks() <-chan string {
	return s.ch
}

// Wait blocks until the stream finishes and returns its error, if any.
func (s *Stream) Wait() error {
	<-s.done
	return s.err
}
