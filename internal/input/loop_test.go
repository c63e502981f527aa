package input

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	calls    []string
	paintErr error
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newLoop(in io.Reader, rec *recorder) *Loop {
	logger, _ := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return &Loop{
		Reader: in,
		Paint: func(text string) error {
			rec.add("paint:" + text)
			return rec.paintErr
		},
		Sync: func() { rec.add("sync") },
		Present: func() error {
			rec.add("present")
			return nil
		},
		Suspend: func(context.Context) error {
			rec.add("suspend")
			return nil
		},
		Log: logrus.NewEntry(logger),
	}
}

func TestPaintsEachLineThenSyncs(t *testing.T) {
	rec := &recorder{}
	err := newLoop(strings.NewReader("one\ntwo\n"), rec).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"paint:one", "sync", "paint:two", "sync"}, rec.get())
}

func TestStripsExactlyOneNewline(t *testing.T) {
	rec := &recorder{}
	err := newLoop(strings.NewReader("crlf\r\n  spaced  \nlast"), rec).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"paint:crlf\r", "sync",
		"paint:  spaced  ", "sync",
		"paint:last", "sync",
	}, rec.get())
}

func TestEmptyLineSuspendsWithoutPainting(t *testing.T) {
	rec := &recorder{}
	err := newLoop(strings.NewReader("a\n\nb\n"), rec).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"paint:a", "sync", "suspend", "paint:b", "sync"}, rec.get())
}

func TestEmptyInputEndsQuietly(t *testing.T) {
	rec := &recorder{}
	err := newLoop(strings.NewReader(""), rec).Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, rec.get())
}

func TestPaintErrorStopsLoop(t *testing.T) {
	rec := &recorder{paintErr: errors.New("boom")}
	err := newLoop(strings.NewReader("a\nb\n"), rec).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, rec.paintErr)
	assert.Equal(t, []string{"paint:a"}, rec.get())
}

func TestReadErrorIsReturned(t *testing.T) {
	rec := &recorder{}
	bad := errors.New("bad read")
	r := io.MultiReader(strings.NewReader("a\n"), errReader{bad})

	err := newLoop(r, rec).Run(context.Background())

	assert.ErrorIs(t, err, bad)
	assert.Equal(t, []string{"paint:a", "sync"}, rec.get())
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func TestEventsPresentWithoutRepainting(t *testing.T) {
	rec := &recorder{}
	events := make(chan Event)
	pr, pw := io.Pipe()
	defer pw.Close()

	l := newLoop(pr, rec)
	l.Events = events

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	events <- Event{Kind: Expose}
	events <- Event{Kind: ScreenChange}
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, []string{"present", "present"}, rec.get())
}

func TestClosedEventSourceFails(t *testing.T) {
	rec := &recorder{}
	events := make(chan Event)
	close(events)
	pr, pw := io.Pipe()
	defer pw.Close()

	l := newLoop(pr, rec)
	l.Events = events

	assert.ErrorIs(t, l.Run(context.Background()), ErrDisplayClosed)
}

func TestHoldKeepsServicingEventsAfterEOF(t *testing.T) {
	rec := &recorder{}
	events := make(chan Event)

	l := newLoop(strings.NewReader("only\n"), rec)
	l.Events = events
	l.Hold = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.get()) == 2 }, time.Second, time.Millisecond)

	// Unbuffered: the send completes only once the loop is past EOF.
	events <- Event{Kind: Expose}

	select {
	case err := <-done:
		t.Fatalf("loop ended while holding: %v", err)
	default:
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"paint:only", "sync", "present"}, rec.get())
}

func TestCancelWhileSuspendedEndsQuietly(t *testing.T) {
	rec := &recorder{}
	l := newLoop(strings.NewReader("\nnever\n"), rec)

	ctx, cancel := context.WithCancel(context.Background())
	l.Suspend = func(ctx context.Context) error {
		rec.add("suspend")
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	require.NoError(t, l.Run(ctx))
	assert.Equal(t, []string{"suspend"}, rec.get())
}

func TestSuspendFailureIsReturned(t *testing.T) {
	rec := &recorder{}
	l := newLoop(strings.NewReader("\n"), rec)
	bad := errors.New("no resume")
	l.Suspend = func(context.Context) error { return bad }

	assert.ErrorIs(t, l.Run(context.Background()), bad)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "expose", Expose.String())
	assert.Equal(t, "screen-change", ScreenChange.String())
	assert.Equal(t, "EventKind(7)", EventKind(7).String())
}
