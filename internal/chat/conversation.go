// Package chat implements the conversation state machine: it owns the
// message log and the in-flight flag and mediates between user input, the
// attachment encoder and the response client.
//
// At most one request is in flight. Submit appends the user message
// synchronously and resolves the reply on a goroutine; the assistant
// message (reply or failure text) is appended exactly once when it resolves.
package chat

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/longkey1/llmchat/internal/attachment"
	"github.com/longkey1/llmchat/internal/config"
	"github.com/longkey1/llmchat/internal/gemini"
	"github.com/longkey1/llmchat/internal/logger"
	"github.com/oklog/ulid/v2"
)

// ErrRequestInFlight is returned by Submit while a reply is pending
var ErrRequestInFlight = errors.New("a response is still pending")

// State of the conversation
type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting_response"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Generator produces the assistant reply for one prompt
type Generator interface {
	Generate(ctx context.Context, p gemini.Prompt) (string, error)
}

// CredentialStore holds the API key
type CredentialStore interface {
	Get() (string, bool, error)
	Set(value string) error
}

// Conversation is the chat state machine. It is safe for concurrent use.
type Conversation struct {
	id    string
	cfg   config.Config
	gen   Generator
	creds CredentialStore
	log   *slog.Logger
	now   func() time.Time

	onChange func()

	mu       sync.Mutex
	entropy  io.Reader
	messages []Message
	state    State
	pending  *attachment.File
}

// Option configures a Conversation
type Option func(*Conversation)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Conversation) {
		c.log = l
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		c.now = now
	}
}

// WithOnChange registers fn to be called after every change to the log,
// the state or the pending attachment. fn runs without the lock held.
func WithOnChange(fn func()) Option {
	return func(c *Conversation) {
		c.onChange = fn
	}
}

// New creates an idle conversation with an empty log
func New(cfg config.Config, gen Generator, creds CredentialStore, opts ...Option) *Conversation {
	c := &Conversation{
		id:      uuid.NewString(),
		cfg:     cfg,
		gen:     gen,
		creds:   creds,
		log:     logger.Discard(),
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
		state:   Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("conversation_id", c.id)
	return c
}

// ID returns the conversation identifier
func (c *Conversation) ID() string {
	return c.id
}

// Config returns the configuration the conversation was created with
func (c *Conversation) Config() config.Config {
	return c.cfg
}

// Messages returns a snapshot of the log
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// State returns the current state
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the staged attachment, if any
func (c *Conversation) Pending() (attachment.File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return attachment.File{}, false
	}
	return *c.pending, true
}

// HasCredential reports whether a credential is stored
func (c *Conversation) HasCredential() bool {
	_, ok, err := c.creds.Get()
	if err != nil {
		c.log.Warn("credential lookup failed", "error", err)
		return false
	}
	return ok
}

// Open is called whenever the widget is opened. The welcome message is
// added only while the log is empty.
func (c *Conversation) Open() {
	c.mu.Lock()
	if len(c.messages) > 0 {
		c.mu.Unlock()
		return
	}
	c.appendLocked(RoleAssistant, c.cfg.UI.WelcomeMessage, nil)
	c.mu.Unlock()
	c.changed()
}

// AttachFile stages f for the next message, replacing any staged file.
// Non-image files are rejected with ErrUnsupportedAttachment.
func (c *Conversation) AttachFile(f attachment.File) error {
	if !attachment.IsImage(f.MediaType) {
		c.log.Debug("attachment rejected", "name", f.Name, "media_type", f.MediaType)
		return ErrUnsupportedAttachment
	}

	c.mu.Lock()
	c.pending = &f
	c.mu.Unlock()
	c.changed()
	return nil
}

// RemoveAttachment clears the staged attachment
func (c *Conversation) RemoveAttachment() {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.mu.Unlock()
	c.changed()
}

// SetCredential stores value as the API key
func (c *Conversation) SetCredential(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrInvalidCredential
	}
	if err := c.creds.Set(value); err != nil {
		return err
	}
	c.log.Debug("credential updated")
	return nil
}

// Submit sends text together with the staged attachment.
//
// Submit returns (nil, nil) and changes nothing when text is blank and no
// attachment is staged. It returns ErrRequestInFlight while a reply is
// pending and ErrMissingCredential when no API key is stored. Otherwise the
// user message is appended before Submit returns and the returned Turn
// completes once the assistant message has been appended.
func (c *Conversation) Submit(ctx context.Context, text string) (*Turn, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	if text == "" && c.pending == nil {
		c.mu.Unlock()
		return nil, nil
	}
	c.mu.Unlock()

	apiKey, ok, err := c.creds.Get()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMissingCredential
	}

	c.mu.Lock()
	// re-check: the lock was released while reading the credential
	if c.state != Idle {
		c.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	file := c.pending
	if text == "" && file == nil {
		c.mu.Unlock()
		return nil, nil
	}

	var display *Attachment
	if file != nil {
		display = &Attachment{MediaType: file.MediaType, Name: file.Name, Data: file.Data}
	}
	c.appendLocked(RoleUser, text, display)
	c.pending = nil
	c.state = AwaitingResponse
	c.mu.Unlock()

	c.log.Debug("turn submitted", "attachment", file != nil)
	c.changed()

	turn := &Turn{done: make(chan struct{})}
	go c.resolve(ctx, turn, text, file, apiKey)
	return turn, nil
}

// resolve runs the asynchronous half of a turn: optional delay, attachment
// encoding, the generation call, and the final append.
func (c *Conversation) resolve(ctx context.Context, turn *Turn, text string, file *attachment.File, apiKey string) {
	reply, err := c.generate(ctx, text, file, apiKey)

	content := reply
	if err != nil {
		c.log.Warn("generation failed", "error", err)
		content = FailureText(err)
	}

	c.mu.Lock()
	msg := c.appendLocked(RoleAssistant, content, nil)
	if err != nil {
		msg.Failed = true
		c.messages[len(c.messages)-1] = msg
	}
	c.state = Idle
	c.mu.Unlock()

	turn.reply = msg
	turn.err = err
	close(turn.done)
	c.changed()
}

func (c *Conversation) generate(ctx context.Context, text string, file *attachment.File, apiKey string) (string, error) {
	if d := c.cfg.DispatchDelay; d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		}
	}

	if t := c.cfg.RequestTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	prompt := gemini.Prompt{
		Model:        c.cfg.Generation.Model,
		Instructions: c.cfg.Persona.Instructions,
		Message:      text,
		Temperature:  c.cfg.Generation.Temperature,
		MaxTokens:    c.cfg.Generation.MaxTokens,
		APIKey:       apiKey,
	}

	if file != nil {
		inline, err := attachment.Encode(ctx, *file)
		if err != nil {
			return "", fmt.Errorf("encoding attachment: %w", err)
		}
		prompt.Attachment = &inline
	}

	return c.gen.Generate(ctx, prompt)
}

// appendLocked must be called with c.mu held
func (c *Conversation) appendLocked(role Role, content string, att *Attachment) Message {
	now := c.now()
	msg := Message{
		ID:         ulid.MustNew(ulid.Timestamp(now), c.entropy).String(),
		Content:    content,
		Role:       role,
		CreatedAt:  now,
		Attachment: att,
	}
	c.messages = append(c.messages, msg)
	return msg
}

func (c *Conversation) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// FailureText is the assistant message content for a failed turn
func FailureText(err error) string {
	return "Error: " + err.Error()
}

// Turn tracks one in-flight submission
type Turn struct {
	done  chan struct{}
	reply Message
	err   error
}

// Done is closed once the assistant message has been appended
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the turn completes or ctx ends. It returns the appended
// assistant message and, for a failed turn, the underlying error.
func (t *Turn) Wait(ctx context.Context) (Message, error) {
	select {
	case <-t.done:
		return t.reply, t.err
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}
