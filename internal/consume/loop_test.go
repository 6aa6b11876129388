package consume

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqpipe/mqpipe/internal/connectors"
)

type ackCall struct {
	id       int
	multiple bool
}

// recorder collects ack and reject calls across all fake ackers so tests
// can assert on the exact settlement sequence.
type recorder struct {
	mu      sync.Mutex
	acks    []ackCall
	rejects []int
}

func (r *recorder) ackCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.acks)
}

func (r *recorder) rejectCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rejects)
}

func (r *recorder) ackCalls() []ackCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ackCall(nil), r.acks...)
}

func (r *recorder) rejectCalls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.rejects...)
}

type fakeAcker struct {
	rec *recorder
	id  int
}

func (a *fakeAcker) Ack(_ context.Context, multiple bool) error {
	a.rec.mu.Lock()
	defer a.rec.mu.Unlock()
	a.rec.acks = append(a.rec.acks, ackCall{id: a.id, multiple: multiple})
	return nil
}

func (a *fakeAcker) Reject(_ context.Context) error {
	a.rec.mu.Lock()
	defer a.rec.mu.Unlock()
	a.rec.rejects = append(a.rec.rejects, a.id)
	return nil
}

// scriptedConsumer replays a fixed delivery sequence, then blocks until the
// wait context expires, like a live consumer on an idle queue.
type scriptedConsumer struct {
	mu         sync.Mutex
	deliveries []connectors.Delivery
	idx        int
}

func (s *scriptedConsumer) Next(ctx context.Context) (connectors.Delivery, error) {
	s.mu.Lock()
	if s.idx < len(s.deliveries) {
		d := s.deliveries[s.idx]
		s.idx++
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()

	<-ctx.Done()
	return connectors.Delivery{}, ctx.Err()
}

func (s *scriptedConsumer) served() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}

func (s *scriptedConsumer) Close() {}

func script(rec *recorder, payloads ...[]byte) *scriptedConsumer {
	src := &scriptedConsumer{}
	for i, p := range payloads {
		src.deliveries = append(src.deliveries, connectors.Delivery{
			Body:  p,
			Acker: &fakeAcker{rec: rec, id: i + 1},
		})
	}
	return src
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// runLoop starts the loop, waits until cond holds, then cancels and joins.
func runLoop(t *testing.T, lp *Loop, cond func() bool) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lp.Run(ctx) }()

	require.Eventually(t, cond, 5*time.Second, 2*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestLoopBatchFlush(t *testing.T) {
	rec := &recorder{}
	src := script(rec, []byte("alpha"), []byte("beta"))
	var out, errw bytes.Buffer

	lp := NewLoop(Config{BatchSize: 2, IdleTimeout: time.Minute}, src, &out, &errw, testLogger())
	runLoop(t, lp, func() bool { return rec.ackCount() == 1 })

	// One cumulative ack through the second delivery's acker covers both.
	assert.Equal(t, []ackCall{{id: 2, multiple: true}}, rec.ackCalls())
	assert.Empty(t, rec.rejectCalls())
	assert.Equal(t, "alpha\nbeta\n", out.String())
	assert.Empty(t, errw.String())
	assert.Zero(t, lp.count)
	assert.Nil(t, lp.acker)
}

func TestLoopBatchFlushBeforeNextDelivery(t *testing.T) {
	rec := &recorder{}
	src := script(rec, []byte("a"), []byte("b"), []byte("c"))
	var out, errw bytes.Buffer

	lp := NewLoop(Config{BatchSize: 2, IdleTimeout: 30 * time.Millisecond}, src, &out, &errw, testLogger())
	runLoop(t, lp, func() bool { return rec.ackCount() == 2 })

	// First flush fires when the window hits two accepted deliveries,
	// before "c" is classified; the trailing delivery flushes on idle.
	assert.Equal(t, []ackCall{{id: 2, multiple: true}, {id: 3, multiple: true}}, rec.ackCalls())
	assert.Equal(t, "a\nb\nc\n", out.String())
}

func TestLoopIdleFlush(t *testing.T) {
	rec := &recorder{}
	src := script(rec, []byte("solo"))
	var out, errw bytes.Buffer

	lp := NewLoop(Config{BatchSize: 256, IdleTimeout: 20 * time.Millisecond}, src, &out, &errw, testLogger())
	runLoop(t, lp, func() bool { return rec.ackCount() == 1 })

	assert.Equal(t, []ackCall{{id: 1, multiple: true}}, rec.ackCalls())
	assert.Equal(t, "solo\n", out.String())
	assert.Zero(t, lp.count)
	assert.Nil(t, lp.acker)
}

func TestLoopIdleWithEmptyWindowDoesNothing(t *testing.T) {
	rec := &recorder{}
	src := script(rec)
	var out, errw bytes.Buffer

	lp := NewLoop(Config{BatchSize: 2, IdleTimeout: 5 * time.Millisecond}, src, &out, &errw, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lp.Run(ctx) }()

	// Let several idle timeouts elapse with nothing pending.
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Zero(t, rec.ackCount())
	assert.Zero(t, rec.rejectCount())
	assert.Empty(t, out.String())
}

func TestLoopParseErrorReject(t *testing.T) {
	rec := &recorder{}
	src := script(rec, []byte{0xff, 0xfe}, []byte("ok"))
	var out, errw bytes.Buffer

	lp := NewLoop(Config{BatchSize: 256, IdleTimeout: 20 * time.Millisecond, ParseErrorAck: false}, src, &out, &errw, testLogger())
	runLoop(t, lp, func() bool { return rec.ackCount() == 1 })

	// The undecodable delivery is rejected on its own acker and never joins
	// the window; the idle flush covers only the accepted delivery.
	assert.Equal(t, []int{1}, rec.rejectCalls())
	assert.Equal(t, []ackCall{{id: 2, multiple: true}}, rec.ackCalls())
	assert.Equal(t, "ok\n", out.String())
	assert.Contains(t, errw.String(), "parse error")
}

func TestLoopParseErrorAck(t *testing.T) {
	rec := &recorder{}
	src := script(rec, []byte{0xff, 0xfe})
	var out, errw bytes.Buffer

	lp := NewLoop(Config{BatchSize: 1, IdleTimeout: time.Minute, ParseErrorAck: true}, src, &out, &errw, testLogger())
	runLoop(t, lp, func() bool { return rec.ackCount() == 1 })

	// Acknowledged like an accepted delivery, but nothing is printed.
	assert.Equal(t, []ackCall{{id: 1, multiple: true}}, rec.ackCalls())
	assert.Empty(t, rec.rejectCalls())
	assert.Empty(t, out.String())
	assert.Contains(t, errw.String(), "parse error")
}

func TestLoopNewlineAck(t *testing.T) {
	rec := &recorder{}
	src := script(rec, []byte("foo\nbar"))
	var out, errw bytes.Buffer

	lp := NewLoop(Config{BatchSize: 1, IdleTimeout: time.Minute, NewlineErrorAck: true}, src, &out, &errw, testLogger())
	runLoop(t, lp, func() bool { return rec.ackCount() == 1 })

	assert.Equal(t, []ackCall{{id: 1, multiple: true}}, rec.ackCalls())
	assert.Empty(t, out.String())
	assert.Contains(t, errw.String(), "foo\nbar")
}

func TestLoopNewlineReject(t *testing.T) {
	rec := &recorder{}
	src := script(rec, []byte("foo\nbar"), []byte("baz"))
	var out, errw bytes.Buffer

	lp := NewLoop(Config{BatchSize: 256, IdleTimeout: 20 * time.Millisecond}, src, &out, &errw, testLogger())
	runLoop(t, lp, func() bool { return rec.ackCount() == 1 })

	assert.Equal(t, []int{1}, rec.rejectCalls())
	assert.Equal(t, []ackCall{{id: 2, multiple: true}}, rec.ackCalls())
	assert.Equal(t, "baz\n", out.String())
	assert.Contains(t, errw.String(), "message contains newlines")
}

func TestLoopOutputPreservesReceiptOrder(t *testing.T) {
	rec := &recorder{}
	src := script(rec,
		[]byte("one"),
		[]byte{0xff},
		[]byte("two"),
		[]byte("bad\nline"),
		[]byte("three"),
	)
	var out, errw bytes.Buffer

	lp := NewLoop(Config{BatchSize: 3, IdleTimeout: time.Minute}, src, &out, &errw, testLogger())
	runLoop(t, lp, func() bool { return rec.ackCount() == 1 })

	assert.Equal(t, "one\ntwo\nthree\n", out.String())
	assert.Equal(t, []int{2, 4}, rec.rejectCalls())
	assert.Equal(t, []ackCall{{id: 5, multiple: true}}, rec.ackCalls())
}

func TestLoopFlushWithoutAckerIsFatal(t *testing.T) {
	var out, errw bytes.Buffer
	lp := NewLoop(Config{BatchSize: 2, IdleTimeout: time.Second}, &scriptedConsumer{}, &out, &errw, testLogger())

	err := lp.flush(context.Background(), "batch")
	require.ErrorIs(t, err, ErrNoPendingAcker)
}

func TestConfigValidate(t *testing.T) {
	c := Config{BatchSize: -1, IdleTimeout: time.Second}
	assert.Error(t, c.Validate())

	c = Config{BatchSize: 10, IdleTimeout: -time.Second}
	assert.Error(t, c.Validate())

	c = Config{}
	c.SetDefaults()
	assert.NoError(t, c.Validate())
	assert.Equal(t, DefaultBatchSize, c.BatchSize)
	assert.Equal(t, DefaultIdleTimeout, c.IdleTimeout)
}
