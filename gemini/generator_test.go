package gemini_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/parley/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// mockChunks returns a genai-style streaming iterator from pre-built chunks,
// ending with err when it is non-nil.
func mockChunks(chunks []*genai.GenerateContentResponse, err error) func(func(*genai.GenerateContentResponse, error) bool) {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		if err != nil {
			yield(nil, err)
		}
	}
}

func textChunk(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: parts},
		}},
	}
}

func TestDrain_ForwardsText(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		textChunk(&genai.Part{Text: "Hello"}),
		textChunk(&genai.Part{Text: "pondering", Thought: true}, &genai.Part{Text: " world"}),
		{},
		textChunk(),
	}

	var got []string
	err := gemini.Drain(mockChunks(chunks, nil), func(s string) error {
		got = append(got, s)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", " world"}, got)
}

func TestDrain_IteratorError(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("quota exceeded")

	err := gemini.Drain(mockChunks([]*genai.GenerateContentResponse{textChunk(&genai.Part{Text: "a"})}, wantErr), func(string) error {
		return nil
	})

	assert.ErrorIs(t, err, wantErr)
	assert.ErrorContains(t, err, "gemini:")
}

func TestDrain_CallbackErrorStops(t *testing.T) {
	t.Parallel()
	stop := errors.New("client gone")
	chunks := []*genai.GenerateContentResponse{
		textChunk(&genai.Part{Text: "a"}),
		textChunk(&genai.Part{Text: "b"}),
	}
	calls := 0

	err := gemini.Drain(mockChunks(chunks, nil), func(string) error {
		calls++
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
