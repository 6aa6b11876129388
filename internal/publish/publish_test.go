package publish

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	payloads [][]byte
	failAt   int // 1-based call index to fail on, 0 never
	calls    int
}

func (p *fakePublisher) Publish(_ context.Context, payload []byte) error {
	p.calls++
	if p.failAt != 0 && p.calls == p.failAt {
		return errors.New("broker unavailable")
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunPublishesLineByLine(t *testing.T) {
	dst := &fakePublisher{}
	in := strings.NewReader("alpha\nbeta\ngamma\n")

	require.NoError(t, Run(context.Background(), dst, in, testLogger()))

	require.Len(t, dst.payloads, 3)
	assert.Equal(t, []byte("alpha"), dst.payloads[0])
	assert.Equal(t, []byte("beta"), dst.payloads[1])
	assert.Equal(t, []byte("gamma"), dst.payloads[2])
}

func TestRunEmptyInput(t *testing.T) {
	dst := &fakePublisher{}

	require.NoError(t, Run(context.Background(), dst, strings.NewReader(""), testLogger()))
	assert.Empty(t, dst.payloads)
}

func TestRunPreservesEmptyLines(t *testing.T) {
	dst := &fakePublisher{}
	in := strings.NewReader("a\n\nb\n")

	require.NoError(t, Run(context.Background(), dst, in, testLogger()))

	require.Len(t, dst.payloads, 3)
	assert.Equal(t, []byte(""), dst.payloads[1])
}

func TestRunFailureIsFatal(t *testing.T) {
	dst := &fakePublisher{failAt: 2}
	in := strings.NewReader("one\ntwo\nthree\n")

	err := Run(context.Background(), dst, in, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")

	// Nothing past the failed line is attempted.
	assert.Equal(t, 2, dst.calls)
	require.Len(t, dst.payloads, 1)
	assert.Equal(t, []byte("one"), dst.payloads[0])
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := &fakePublisher{}
	require.NoError(t, Run(ctx, dst, strings.NewReader("a\nb\n"), testLogger()))
	assert.Empty(t, dst.payloads)
}
