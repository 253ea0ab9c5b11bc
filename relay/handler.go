package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/sse"
	"golang.org/x/time/rate"
)

// defaultFrameInterval paces frames so the client renders the reply
// progressively even when the upstream delivers it in bursts.
const defaultFrameInterval = 10 * time.Millisecond

// Handler serves the chat route for a set of upstream generators.
type Handler struct {
	mux           *http.ServeMux
	models        map[string]parley.Generator
	logger        *slog.Logger
	frameInterval time.Duration
}

// HandlerOption configures a [Handler].
type HandlerOption func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// WithFrameInterval sets the minimum spacing between frames. Zero or less
// disables pacing.
func WithFrameInterval(d time.Duration) HandlerOption {
	return func(h *Handler) { h.frameInterval = d }
}

// NewHandler creates a Handler routing /api/{model} to models[model].
func NewHandler(models map[string]parley.Generator, opts ...HandlerOption) *Handler {
	h := &Handler{
		mux:           http.NewServeMux(),
		models:        models,
		logger:        slog.New(slog.DiscardHandler),
		frameInterval: defaultFrameInterval,
	}
	for _, o := range opts {
		o(h)
	}
	h.mux.HandleFunc("POST "+apiPrefix+"{model}", h.handleChat)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) limiter() *rate.Limiter {
	if h.frameInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(h.frameInterval), 1)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	model := r.PathValue("model")
	logger := h.logger.With("method", r.Method, "path", r.URL.Path, "model", model)

	gen, ok := h.models[model]
	if !ok {
		logger.Warn("unknown model")
		http.Error(w, "unknown model", http.StatusNotFound)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("bad request", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	prompt, err := BuildPrompt(req.MessageHistory, req.Prompt)
	if err != nil {
		logger.Error("build prompt", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	out := sse.NewWriter(w)
	limiter := h.limiter()
	frames := 0
	err = gen.Generate(r.Context(), parley.GenerateRequest{Prompt: prompt}, func(delta string) error {
		if delta == "" {
			return nil
		}
		if err := limiter.Wait(r.Context()); err != nil {
			return err
		}
		frames++
		return out.WriteFragment(delta)
	})
	if err == nil {
		err = out.WriteDone()
	}
	if err != nil {
		logger.Error("stream failed", "error", err, "frames", frames, "duration", time.Since(start))
		// The status line is already sent; dropping the connection is the
		// only way left to tell the client the reply is incomplete.
		panic(http.ErrAbortHandler)
	}
	logger.Info("stream complete", "frames", frames, "duration", time.Since(start))
}
