package parley

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Snapshot is a consistent copy of a Controller's state. StreamingID is the
// ID of the assistant message receiving fragments, empty unless an exchange
// is in flight.
type Snapshot struct {
	Session     ChatSession
	State       ExchangeState
	StreamingID string
}

// Controller orchestrates the exchanges of one chat view: it appends the
// user message, streams the assistant reply into a placeholder message and
// persists the session after every change.
type Controller struct {
	client Completer
	store  SessionStore
	cfg    controllerConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	session   ChatSession
	state     ExchangeState
	streaming string
}

// ControllerOption configures a Controller.
type ControllerOption func(*controllerConfig)

type controllerConfig struct {
	model     string
	logger    *slog.Logger
	hub       *Hub
	observers []func(Snapshot)
	now       func() time.Time
}

// WithModel sets the model requested for every exchange. Empty string means
// the Completer's default.
func WithModel(model string) ControllerOption {
	return func(c *controllerConfig) { c.model = model }
}

// WithLogger sets the logger used for persistence and transport failures.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *controllerConfig) { c.logger = logger }
}

// WithHub sets the Hub notified after every persisted change.
func WithHub(hub *Hub) ControllerOption {
	return func(c *controllerConfig) { c.hub = hub }
}

// WithObserver registers a callback that receives a Snapshot after every
// change. Callbacks run with the controller lock held and must not call back
// into the Controller.
func WithObserver(fn func(Snapshot)) ControllerOption {
	return func(c *controllerConfig) { c.observers = append(c.observers, fn) }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *controllerConfig) { c.now = now }
}

// NewController creates a Controller for session. The Controller's lifetime
// bounds every exchange it starts: Close aborts the one in flight.
func NewController(client Completer, store SessionStore, session ChatSession, opts ...ControllerOption) *Controller {
	cfg := controllerConfig{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		client:  client,
		store:   store,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		session: session.Clone(),
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Submit starts an exchange for text. It returns ErrEmptyInput for
// whitespace-only text and ErrBusy while another exchange is in flight; in
// both cases nothing changes. Otherwise the user message and an empty
// assistant placeholder are appended and persisted before Submit returns,
// and the reply streams in the background.
func (c *Controller) Submit(text string) error {
	prompt := strings.TrimSpace(text)
	if prompt == "" {
		return ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		return ErrClosed
	}
	if c.state != ExchangeIdle {
		return ErrBusy
	}

	c.session.Messages = append(c.session.Messages, NewMessage(RoleUser, prompt, c.cfg.now()))
	c.commitLocked()

	req := ChatRequest{
		Model:   c.cfg.model,
		History: History(c.session.Messages),
		Prompt:  prompt,
	}

	reply := NewMessage(RoleAssistant, "", c.cfg.now())
	c.session.Messages = append(c.session.Messages, reply)
	c.setStateLocked(ExchangeAwaiting)
	c.streaming = reply.ID
	c.commitLocked()

	c.wg.Add(1)
	go c.exchange(req, reply.ID)
	return nil
}

// Wait blocks until the exchange in flight, if any, has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close aborts the exchange in flight and waits for it to finish. The
// partial reply is kept and persisted.
func (c *Controller) Close() error {
	c.cancel()
	c.wg.Wait()
	return nil
}

// exchange drains one reply stream into the message identified by id.
func (c *Controller) exchange(req ChatRequest, id string) {
	defer c.wg.Done()

	stream, err := c.client.Stream(c.ctx, req)
	if err != nil {
		c.finish(id, err)
		return
	}
	defer stream.Close()

	for {
		fragment, err := stream.Next()
		if err == io.EOF {
			c.finish(id, nil)
			return
		}
		if err != nil {
			c.finish(id, err)
			return
		}
		c.apply(id, fragment)
	}
}

// apply appends a fragment to the streaming message in place.
func (c *Controller) apply(id, fragment string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return
	}
	c.session.Messages[i].Content += fragment
	c.setStateLocked(ExchangeStreaming)
	c.commitLocked()
}

// finish records the outcome of an exchange and returns to idle. A failure
// replaces the reply with ErrorReply, except when the Controller was closed,
// in which case the partial reply stands.
func (c *Controller) finish(id string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	outcome := ExchangeCompleted
	switch {
	case err == nil:
	case c.ctx.Err() != nil:
		c.cfg.logger.Info("exchange aborted", "session", c.session.ID, "error", err)
	default:
		c.cfg.logger.Error("exchange failed", "session", c.session.ID, "error", err)
		if i := c.indexLocked(id); i >= 0 {
			c.session.Messages[i].Content = ErrorReply
		}
		outcome = ExchangeFailed
	}

	c.setStateLocked(outcome)
	c.streaming = ""
	c.commitLocked()

	c.setStateLocked(ExchangeIdle)
	c.notifyLocked()
}

func (c *Controller) indexLocked(id string) int {
	for i := len(c.session.Messages) - 1; i >= 0; i-- {
		if c.session.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) setStateLocked(next ExchangeState) {
	state, err := c.state.transition(next)
	if err != nil {
		// Unreachable through the public API; keep the current state.
		c.cfg.logger.Error("exchange state", "error", err)
		return
	}
	c.state = state
}

// commitLocked persists the session after a message-list change and notifies
// observers. Persistence failures are logged; the conversation continues in
// memory.
func (c *Controller) commitLocked() {
	c.session.Touch(c.cfg.now())
	if err := SaveSession(c.store, c.session.Clone()); err != nil {
		c.cfg.logger.Warn("persist session", "session", c.session.ID, "error", err)
	} else if c.cfg.hub != nil {
		c.cfg.hub.Publish(Change{Key: SessionsKey})
	}
	c.notifyLocked()
}

func (c *Controller) notifyLocked() {
	if len(c.cfg.observers) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, fn := range c.cfg.observers {
		fn(snap)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Session:     c.session.Clone(),
		State:       c.state,
		StreamingID: c.streaming,
	}
}
