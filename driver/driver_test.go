package driver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/samvad/core"
)

// memStore is an in-memory stand-in for the transcript file.
type memStore struct {
	mu      sync.Mutex
	content string
	appends int
	reads   int
}

func (s *memStore) Read() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.content, nil
}

func (s *memStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *memStore) Append(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content += text
	s.appends++
	return nil
}

func (s *memStore) set(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = content
}

// fakeCompleter records calls and returns a canned reply or error.
type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
	last  []core.Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []core.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = messages
	return f.reply, f.err
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newDriver(store *memStore, completer *fakeCompleter) *Driver {
	return New(store, completer, Config{})
}

func TestProcessUnchanged(t *testing.T) {
	store := &memStore{}
	completer := &fakeCompleter{reply: "hi"}
	d := newDriver(store, completer)

	outcome, err := d.Process(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
	assert.Zero(t, completer.callCount())
}

func TestProcessAwaitingTerminator(t *testing.T) {
	store := &memStore{}
	completer := &fakeCompleter{reply: "hi"}
	d := newDriver(store, completer)

	outcome, err := d.Process(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, AwaitingTerminator, outcome)
	assert.Zero(t, completer.callCount())

	// The cache advanced: the same snapshot is now unchanged.
	outcome, err = d.Process(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
}

func TestProcessSkipsAssistantTurn(t *testing.T) {
	store := &memStore{}
	completer := &fakeCompleter{reply: "hi"}
	d := newDriver(store, completer)

	content := "Hello" + core.Delimiter + "\n\n"
	outcome, err := d.Process(context.Background(), content)
	require.NoError(t, err)
	assert.Equal(t, SkippedAssistantTurn, outcome)
	assert.Zero(t, completer.callCount())

	outcome, err = d.Process(context.Background(), content)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
}

func TestProcessSkipsEmptyMessage(t *testing.T) {
	store := &memStore{}
	completer := &fakeCompleter{reply: "hi"}
	d := newDriver(store, completer)

	outcome, err := d.Process(context.Background(), " \n\n")
	require.NoError(t, err)
	assert.Equal(t, SkippedEmptyMessage, outcome)
	assert.Zero(t, completer.callCount())
}

func TestProcessRepliesAndAppends(t *testing.T) {
	content := "Hi" + core.Delimiter + "hello!" + core.Delimiter + "How are you?\n\n"
	store := &memStore{content: content}
	completer := &fakeCompleter{reply: "I am fine."}
	d := newDriver(store, completer)

	outcome, err := d.Process(context.Background(), content)
	require.NoError(t, err)
	assert.Equal(t, Replied, outcome)

	require.Equal(t, 1, completer.callCount())
	require.Len(t, completer.last, 3)
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "Hi"}, completer.last[0])
	assert.Equal(t, core.Message{Role: core.RoleAssistant, Content: "hello!"}, completer.last[1])
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "How are you?"}, completer.last[2])

	want := content + "\nI am fine." + core.Delimiter
	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, store.appends)

	// The appended reply ends with a delimiter, so the follow-up change
	// event classifies as an assistant turn once the user adds a blank
	// line, and as unchanged without one.
	outcome, err = d.Process(context.Background(), got)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
}

func TestProcessFirstMessage(t *testing.T) {
	content := "Hello\n\n"
	store := &memStore{content: content}
	completer := &fakeCompleter{reply: "Hi!"}
	d := newDriver(store, completer)

	outcome, err := d.Process(context.Background(), content)
	require.NoError(t, err)
	assert.Equal(t, Replied, outcome)

	require.Len(t, completer.last, 1)
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "Hello"}, completer.last[0])
}

func TestProcessFailureKeepsCache(t *testing.T) {
	content := "Hello\n\n"
	store := &memStore{content: content}
	completer := &fakeCompleter{err: errors.New("boom")}
	d := newDriver(store, completer)

	outcome, err := d.Process(context.Background(), content)
	assert.Equal(t, Failed, outcome)
	require.Error(t, err)
	assert.Zero(t, store.appends)

	// The cache did not advance, so the same snapshot is retried.
	outcome, _ = d.Process(context.Background(), content)
	assert.Equal(t, Failed, outcome)
	assert.Equal(t, 2, completer.callCount())
}

func TestProcessWindowCap(t *testing.T) {
	content := "m1"
	for _, m := range []string{"m2", "m3", "m4", "m5", "m6", "m7", "m8"} {
		content += core.Delimiter + m
	}
	content += "\n\n"
	store := &memStore{content: content}
	completer := &fakeCompleter{reply: "ok"}
	d := New(store, completer, Config{MaxContext: 4})

	_, err := d.Process(context.Background(), content)
	require.NoError(t, err)

	// Four history messages plus the live one.
	require.Len(t, completer.last, 5)
	assert.Equal(t, "m8", completer.last[4].Content)
	assert.Equal(t, "m4", completer.last[0].Content)
}

func TestRunDebouncesRapidEvents(t *testing.T) {
	store := &memStore{content: "Hello\n\n"}
	completer := &fakeCompleter{reply: "Hi!"}
	d := New(store, completer, Config{Debounce: 200 * time.Millisecond})

	events := make(chan struct{}, 2)
	events <- struct{}{}
	events <- struct{}{}
	close(events)

	require.NoError(t, d.Run(context.Background(), events))

	// One read for the initial prime, one for the first event. The
	// second event lands inside the debounce window and is dropped
	// without re-reading the file.
	assert.Equal(t, 2, store.readCount())
	assert.Equal(t, 1, d.Stats()[Unchanged])
}

func TestRunProcessesLiveChange(t *testing.T) {
	store := &memStore{}
	completer := &fakeCompleter{reply: "Hi!"}
	d := New(store, completer, Config{Debounce: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, events) }()

	// Let the initial prime land on the empty transcript, then edit.
	time.Sleep(20 * time.Millisecond)
	store.set("Hello\n\n")
	events <- struct{}{}

	assert.Eventually(t, func() bool { return completer.callCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	content, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "Hello\n\n\nHi!"+core.Delimiter, content)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := &memStore{}
	completer := &fakeCompleter{reply: "hi"}
	d := newDriver(store, completer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, make(chan struct{}))
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop on cancel")
	}
}

func TestStats(t *testing.T) {
	store := &memStore{}
	completer := &fakeCompleter{reply: "hi"}
	d := newDriver(store, completer)

	_, _ = d.Process(context.Background(), "typing")
	_, _ = d.Process(context.Background(), "typing")

	stats := d.Stats()
	assert.Equal(t, 1, stats[AwaitingTerminator])
	assert.Equal(t, 1, stats[Unchanged])
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "replied", Replied.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}
