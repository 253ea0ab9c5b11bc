package sse_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedBody returns the given chunks one per Read call, then err.
type chunkedBody struct {
	chunks [][]byte
	err    error
	closed bool
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		return 0, b.err
	}
	n := copy(p, b.chunks[0])
	b.chunks[0] = b.chunks[0][n:]
	if len(b.chunks[0]) == 0 {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

func (b *chunkedBody) Close() error {
	b.closed = true
	return nil
}

func body(chunks ...string) *chunkedBody {
	b := &chunkedBody{err: io.EOF}
	for _, c := range chunks {
		b.chunks = append(b.chunks, []byte(c))
	}
	return b
}

// drain collects fragments until Next returns an error.
func drain(t *testing.T, r *sse.Reader) ([]string, error) {
	t.Helper()
	var got []string
	for {
		f, err := r.Next()
		if err != nil {
			return got, err
		}
		got = append(got, f)
	}
}

const recursionStream = "data: {\"content\":\"Recursion is \"}\n\n" +
	"data: {\"content\":\"when a function \"}\n\n" +
	"data: {\"content\":\"calls itself. 🌍 héllo\"}\n\n" +
	"data: [DONE]\n\n"

func TestReader_Fragments(t *testing.T) {
	t.Parallel()
	r := sse.NewReader(body(recursionStream))

	got, err := drain(t, r)

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"Recursion is ", "when a function ", "calls itself. 🌍 héllo"}, got)
	assert.Equal(t, parley.StreamStateComplete, r.State())
}

func TestReader_ArbitraryChunking(t *testing.T) {
	t.Parallel()
	want := "Recursion is when a function calls itself. 🌍 héllo"
	raw := []byte(recursionStream)

	for split := 0; split <= len(raw); split++ {
		r := sse.NewReader(body(string(raw[:split]), string(raw[split:])))
		got, err := drain(t, r)
		require.ErrorIs(t, err, io.EOF, "split at %d", split)
		assert.Equal(t, want, strings.Join(got, ""), "split at %d", split)
	}
}

func TestReader_ByteAtATime(t *testing.T) {
	t.Parallel()
	raw := []byte(recursionStream)
	chunks := make([]string, len(raw))
	for i := range raw {
		chunks[i] = string(raw[i : i+1])
	}
	r := sse.NewReader(body(chunks...))

	got, err := drain(t, r)

	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "Recursion is when a function calls itself. 🌍 héllo", strings.Join(got, ""))
}

func TestReader_SkipsMalformedLines(t *testing.T) {
	t.Parallel()
	r := sse.NewReader(body(
		": comment\n",
		"event: message\n",
		"data: {not json}\n",
		"data: {\"content\":42}\n",
		"data: {\"content\":\"\"}\n",
		"data: {\"other\":\"x\"}\n",
		"data:{\"content\":\"no space\"}\n",
		"data: {\"content\":\"ok\"}\n",
	))

	got, err := drain(t, r)

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"ok"}, got)
}

func TestReader_TrimsPayload(t *testing.T) {
	t.Parallel()
	r := sse.NewReader(body("data:   {\"content\":\" padded \"}  \r\n"))

	got, err := drain(t, r)

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{" padded "}, got)
}

func TestReader_StopsEmittingAfterDone(t *testing.T) {
	t.Parallel()
	b := body(
		"data: {\"content\":\"before\"}\n",
		"data: [DONE]\n",
		"data: {\"content\":\"after\"}\n",
	)
	r := sse.NewReader(b)

	got, err := drain(t, r)

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"before"}, got)
	assert.Empty(t, b.chunks, "body is drained after the marker")
}

func TestReader_DiscardsUnterminatedTail(t *testing.T) {
	t.Parallel()
	r := sse.NewReader(body("data: {\"content\":\"a\"}\n", "data: {\"content\":\"b\"}"))

	got, err := drain(t, r)

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"a"}, got)
}

func TestReader_InvalidUTF8BecomesReplacement(t *testing.T) {
	t.Parallel()
	r := sse.NewReader(body("data: {\"content\":\"a\xffb\"}\n"))

	got, err := drain(t, r)

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"a\uFFFDb"}, got)
}

func TestReader_EmptyBody(t *testing.T) {
	t.Parallel()
	r := sse.NewReader(body())

	assert.Equal(t, parley.StreamStateNew, r.State())
	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_ReadError(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("connection reset")
	b := body("data: {\"content\":\"partial\"}\n")
	b.err = wantErr
	r := sse.NewReader(b)

	f, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "partial", f)
	assert.Equal(t, parley.StreamStateStreaming, r.State())

	_, err = r.Next()
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, parley.StreamStateError, r.State())

	_, err = r.Next()
	assert.ErrorIs(t, err, wantErr)
}

func TestReader_Close(t *testing.T) {
	t.Parallel()

	t.Run("mid-stream", func(t *testing.T) {
		t.Parallel()
		b := body("data: {\"content\":\"a\"}\n", "data: {\"content\":\"b\"}\n")
		r := sse.NewReader(b)
		_, err := r.Next()
		require.NoError(t, err)

		require.NoError(t, r.Close())

		assert.True(t, b.closed)
		assert.Equal(t, parley.StreamStateClosed, r.State())
		_, err = r.Next()
		assert.ErrorIs(t, err, parley.ErrStreamClosed)
	})

	t.Run("after completion keeps state", func(t *testing.T) {
		t.Parallel()
		r := sse.NewReader(body())
		_, err := r.Next()
		require.ErrorIs(t, err, io.EOF)

		require.NoError(t, r.Close())

		assert.Equal(t, parley.StreamStateComplete, r.State())
	})
}
