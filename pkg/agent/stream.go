package agent

import (
	"ai-agent-be/pkg/llm"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
)

// Fragment is one piece of a streamed answer. Fragments of the same model
// message share an id.
type Fragment struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Stream is the output of one turn. Recv returns io.EOF once the answer is
// complete. Close cancels the turn and may be called at any time.
type Stream interface {
	Recv() (Fragment, error)
	Close() error
}

func newFragmentID() string {
	return "run-" + uuid.NewString()
}

// turn carries the cancel func and completion hook shared by stream types
type turn struct {
	cancel context.CancelFunc
	onDone func(err error)
	once   sync.Once
}

// finish reports the outcome exactly once. A nil error means the answer
// was fully delivered, context.Canceled means the caller stopped early.
func (t *turn) finish(err error) {
	t.once.Do(func() {
		t.cancel()
		if t.onDone != nil {
			t.onDone(err)
		}
	})
}

// modelStream relays a single model reply
type modelStream struct {
	*turn
	id  string
	src llm.Stream
}

func newModelStream(src llm.Stream, t *turn) *modelStream {
	return &modelStream{turn: t, id: newFragmentID(), src: src}
}

func (s *modelStream) Recv() (Fragment, error) {
	for {
		chunk, err := s.src.Recv()
		if errors.Is(err, io.EOF) {
			s.finish(nil)
			return Fragment{}, io.EOF
		}
		if err != nil {
			err = transportError(StageStream, err)
			s.finish(err)
			return Fragment{}, err
		}
		if chunk.Content == "" {
			continue
		}
		return Fragment{ID: s.id, Content: chunk.Content}, nil
	}
}

func (s *modelStream) Close() error {
	err := s.src.Close()
	s.finish(context.Canceled)
	return err
}

// Collect drains a turn into one string and closes it
func Collect(stream Stream) (string, error) {
	defer stream.Close()

	var out []byte
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return string(out), nil
		}
		if err != nil {
			return string(out), err
		}
		out = append(out, fragment.Content...)
	}
}
