package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/longkey1/llmchat/internal/chat"
	"github.com/longkey1/llmchat/internal/config"
	"github.com/longkey1/llmchat/internal/credential"
	"github.com/longkey1/llmchat/internal/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoGenerator struct {
	mu      sync.Mutex
	prompts []gemini.Prompt
}

func (g *echoGenerator) Generate(ctx context.Context, p gemini.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	return "echo: " + p.Message, nil
}

func newTestSession(t *testing.T, input string, withKey bool) (*session, *echoGenerator, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.NewDefaultConfig(t.TempDir())
	store := credential.NewStore(credential.NewMemoryKV())
	if withKey {
		require.NoError(t, store.Set("k"))
	}
	gen := &echoGenerator{}
	var out, errOut bytes.Buffer
	s := newSession(strings.NewReader(input), &out, &errOut)
	s.conv = chat.New(*cfg, gen, store, chat.WithOnChange(s.notify))
	return s, gen, &out, &errOut
}

func TestSession_ConversationFlow(t *testing.T) {
	s, gen, out, _ := newTestSession(t, "hi\n\nsecond \\\nline\n", true)

	require.NoError(t, s.run(context.Background()))

	assert.Contains(t, out.String(), "AI Assistant")
	assert.Contains(t, out.String(), "Hello! How can I help you today?")
	assert.Contains(t, out.String(), "echo: hi")

	require.Len(t, gen.prompts, 2)
	assert.Equal(t, "second \nline", gen.prompts[1].Message)

	// welcome + two turns
	assert.Len(t, s.conv.Messages(), 5)
}

func TestSession_MissingKeyThenSet(t *testing.T) {
	s, gen, _, errOut := newTestSession(t, "hello\n/key\nsecret\nhello\n/exit\n", false)

	require.NoError(t, s.run(context.Background()))

	assert.Contains(t, errOut.String(), "No API key set")
	assert.Contains(t, errOut.String(), "API Key Required")
	assert.Contains(t, errOut.String(), "API key saved.")
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "secret", gen.prompts[0].APIKey)
}

func TestSession_BlankKeyRejected(t *testing.T) {
	s, _, _, errOut := newTestSession(t, "/key   \n", false)
	s.readSecret = func() (string, error) { return "  ", nil }

	require.NoError(t, s.run(context.Background()))
	assert.Contains(t, errOut.String(), "Invalid API Key")
	assert.False(t, s.conv.HasCredential())
}

func TestSession_AttachCommands(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644))
	pdf := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n"), 0o644))

	input := strings.Join([]string{
		"/attach " + pdf,
		"/attach " + png,
		"/detach",
		"/attach " + png,
		"what is this?",
		"/info",
		"/quit",
		"never sent",
	}, "\n") + "\n"
	s, gen, out, errOut := newTestSession(t, input, true)

	require.NoError(t, s.run(context.Background()))

	assert.Contains(t, errOut.String(), "Only image files are supported")
	assert.Contains(t, errOut.String(), "Attachment removed.")
	assert.Contains(t, out.String(), "cat.png: image/png")
	assert.Contains(t, errOut.String(), "Goodbye!")

	require.Len(t, gen.prompts, 1)
	require.NotNil(t, gen.prompts[0].Attachment)
	assert.Equal(t, "image/png", gen.prompts[0].Attachment.MediaType)
}

func TestSession_UnknownCommand(t *testing.T) {
	s, _, _, errOut := newTestSession(t, "/bogus\n/help\n", true)

	require.NoError(t, s.run(context.Background()))
	assert.Contains(t, errOut.String(), "Unknown command: /bogus")
	assert.Contains(t, errOut.String(), "/attach <path>")
}

type gatedGenerator struct {
	release chan struct{}
}

func (g *gatedGenerator) Generate(ctx context.Context, p gemini.Prompt) (string, error) {
	select {
	case <-g.release:
		return "late reply", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestSession_SendRendersOnChange(t *testing.T) {
	cfg := config.NewDefaultConfig(t.TempDir())
	store := credential.NewStore(credential.NewMemoryKV())
	require.NoError(t, store.Set("k"))
	gen := &gatedGenerator{release: make(chan struct{})}

	var out, errOut bytes.Buffer
	s := newSession(strings.NewReader(""), &out, &errOut)
	s.conv = chat.New(*cfg, gen, store, chat.WithOnChange(s.notify))
	s.conv.Open()
	s.flush()
	require.Equal(t, 1, s.shown)

	spinning := make(chan struct{})
	s.spinner = func(done <-chan struct{}) {
		close(spinning)
		<-done
	}

	sent := make(chan error, 1)
	go func() { sent <- s.send(context.Background(), "hello") }()

	select {
	case <-spinning:
	case <-time.After(5 * time.Second):
		t.Fatal("spinner did not start")
	}
	assert.NotContains(t, out.String(), "late reply")

	close(gen.release)
	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("send did not return after the reply was appended")
	}

	assert.Contains(t, out.String(), "late reply")
	assert.Equal(t, 3, s.shown)
	assert.Equal(t, chat.Idle, s.conv.State())
}

func TestSession_AwaitIdleHonoursContext(t *testing.T) {
	cfg := config.NewDefaultConfig(t.TempDir())
	store := credential.NewStore(credential.NewMemoryKV())
	require.NoError(t, store.Set("k"))
	gen := &gatedGenerator{release: make(chan struct{})}
	defer close(gen.release)

	s := newSession(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	s.conv = chat.New(*cfg, gen, store, chat.WithOnChange(s.notify))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.conv.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.ErrorIs(t, s.awaitIdle(ctx), context.Canceled)
}

func TestSession_NotifyNeverBlocks(t *testing.T) {
	s := newSession(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	s.notify()
	s.notify()
	s.notify()
	assert.Len(t, s.updates, 1)
}

func TestConfigField(t *testing.T) {
	cfg := config.NewDefaultConfig("/etc/llmchat")

	v, ok := configField(cfg, "model")
	assert.True(t, ok)
	assert.Equal(t, config.DefaultModel, v)

	v, ok = configField(cfg, "max_tokens")
	assert.True(t, ok)
	assert.Equal(t, "1024", v)

	v, ok = configField(cfg, "credential_path")
	assert.True(t, ok)
	assert.Equal(t, "/etc/llmchat/credentials.json", v)

	_, ok = configField(cfg, "nope")
	assert.False(t, ok)
}
