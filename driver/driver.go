// Package driver orchestrates the watch loop: it diffs transcript
// snapshots against the last-seen copy, decides whether a completed
// user message is ready to send, and commits assistant replies back to
// the transcript file.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonnes/samvad/core"
	"github.com/sonnes/samvad/transcript"
)

// Outcome classifies what a single change event amounted to.
type Outcome int

const (
	// Unchanged: the snapshot is identical to the cached one.
	Unchanged Outcome = iota
	// AwaitingTerminator: the user is still typing; no trailing double
	// newline yet.
	AwaitingTerminator
	// SkippedAssistantTurn: the double newline sits right after an
	// assistant reply's delimiter; nothing to send.
	SkippedAssistantTurn
	// SkippedEmptyMessage: a terminator is present but no message text.
	SkippedEmptyMessage
	// Replied: a completion was fetched and appended to the file.
	Replied
	// Failed: the pass errored. The cache is not advanced, so the next
	// change event re-derives the same state and can retry.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case AwaitingTerminator:
		return "awaiting-terminator"
	case SkippedAssistantTurn:
		return "skipped-assistant-turn"
	case SkippedEmptyMessage:
		return "skipped-empty-message"
	case Replied:
		return "replied"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ErrNoTerminator reports a buffer that passed the trailing-terminator
// check yet contains no terminator. It marks an invariant violation in
// the buffer handling, not a user state; the event is logged and
// skipped.
var ErrNoTerminator = errors.New("transcript has no terminator")

// DefaultDebounce is the minimum gap between two processed change
// events. Editors often write a file in more than one syscall; events
// inside the gap are dropped without re-reading the file.
const DefaultDebounce = 50 * time.Millisecond

// Store is the authoritative transcript file.
type Store interface {
	Read() (string, error)
	Append(text string) error
}

// Completer produces an assistant reply for an ordered message window.
type Completer interface {
	Complete(ctx context.Context, messages []core.Message) (string, error)
}

// Config holds driver settings. Zero values fall back to defaults.
type Config struct {
	// MaxContext caps the conversation window sent per request.
	MaxContext int
	// Debounce is the minimum gap between processed events.
	Debounce time.Duration
	// Logger overrides the package default.
	Logger *log.Logger
}

// Driver holds the only mutable state of the system: the last-seen
// transcript snapshot, used purely for equality-based change
// detection, plus per-outcome counters.
type Driver struct {
	store      Store
	completer  Completer
	maxContext int
	debounce   time.Duration
	logger     *log.Logger

	// mu guards lastContent and counts. Processing is sequential by
	// construction; the lock exists so a shutdown status probe from
	// another goroutine reads a consistent snapshot.
	mu          sync.Mutex
	lastContent string
	counts      map[Outcome]int
}

// New creates a Driver over the given store and completion service.
func New(store Store, completer Completer, cfg Config) *Driver {
	if cfg.MaxContext <= 0 {
		cfg.MaxContext = core.MaxContextMessages
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Driver{
		store:      store,
		completer:  completer,
		maxContext: cfg.MaxContext,
		debounce:   cfg.Debounce,
		logger:     cfg.Logger,
		counts:     make(map[Outcome]int),
	}
}

// Run consumes change signals until ctx is canceled or events closes.
// Each pass reads the file fresh and feeds it through Process. An
// in-flight pass always completes before the loop exits, so no partial
// writes are left pending.
func (d *Driver) Run(ctx context.Context, events <-chan struct{}) error {
	if content, err := d.store.Read(); err == nil {
		d.mu.Lock()
		d.lastContent = content
		d.mu.Unlock()
		d.logger.Debug("load: initial transcript", "bytes", len(content))
	}

	var lastProcessed time.Time
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down")
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			if time.Since(lastProcessed) < d.debounce {
				d.logger.Debug("debounce: dropping event")
				continue
			}
			lastProcessed = time.Now()

			content, err := d.store.Read()
			if err != nil {
				d.record(Failed)
				d.logger.Error("read transcript", "err", err)
				continue
			}
			if outcome, err := d.Process(ctx, content); err != nil {
				d.logger.Error("process change", "outcome", outcome, "err", err)
			}
		}
	}
}

// Process runs the state machine for one transcript snapshot. The
// cache advances on every outcome except Failed, so a failed
// completion is retried by the next change event over the same state.
func (d *Driver) Process(ctx context.Context, content string) (Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if content == d.lastContent {
		d.logger.Debug("unchanged: no new content")
		return d.done(Unchanged), nil
	}

	if !strings.HasSuffix(content, core.Terminator) {
		d.logger.Debug("skip: waiting for double enter")
		d.lastContent = content
		return d.done(AwaitingTerminator), nil
	}

	cursor, ok := transcript.Cursor(content)
	if !ok {
		// HasSuffix above guarantees a terminator; reaching here means
		// the buffer changed underneath us or the logic broke.
		return d.done(Failed), ErrNoTerminator
	}

	if transcript.IsAssistantTurn(content, cursor) {
		d.logger.Debug("skip: last turn was the assistant's")
		d.lastContent = content
		return d.done(SkippedAssistantTurn), nil
	}

	message := transcript.NewMessage(content, cursor)
	if message == "" {
		d.logger.Debug("skip: empty message")
		d.lastContent = content
		return d.done(SkippedEmptyMessage), nil
	}

	messages := append(
		transcript.History(content, cursor, d.maxContext),
		core.Message{Role: core.RoleUser, Content: message},
	)

	d.logger.Info("call: requesting completion", "messages", len(messages))
	reply, err := d.completer.Complete(ctx, messages)
	if err != nil {
		return d.done(Failed), fmt.Errorf("complete: %w", err)
	}

	d.logger.Info("write: appending assistant reply", "bytes", len(reply))
	if err := d.store.Append("\n" + reply + core.Delimiter); err != nil {
		return d.done(Failed), fmt.Errorf("append reply: %w", err)
	}

	// Refresh the cache from the authoritative file rather than the
	// snapshot: the user may have kept typing while the request was in
	// flight.
	fresh, err := d.store.Read()
	if err != nil {
		return d.done(Failed), fmt.Errorf("refresh cache: %w", err)
	}
	d.lastContent = fresh
	return d.done(Replied), nil
}

// Stats returns a snapshot of how many change events landed on each
// outcome. Safe to call from another goroutine during shutdown.
func (d *Driver) Stats() map[Outcome]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[Outcome]int, len(d.counts))
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}

// done records the outcome counter. Callers hold mu.
func (d *Driver) done(o Outcome) Outcome {
	d.counts[o]++
	return o
}

// record counts an outcome reached outside Process, such as a failed
// file read in the run loop.
func (d *Driver) record(o Outcome) {
	d.mu.Lock()
	d.counts[o]++
	d.mu.Unlock()
}
