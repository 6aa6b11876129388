package consume

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleLoopPrintsEverything(t *testing.T) {
	rec := &recorder{}
	src := script(rec,
		[]byte("alpha"),
		[]byte("has\nnewline"),
		[]byte{0xff, 0xfe},
	)
	var out bytes.Buffer

	lp := NewSimpleLoop(src, &out, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lp.Run(ctx) }()

	require.Eventually(t, func() bool { return src.served() == 3 }, 5*time.Second, 2*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	// No classification and no client-side settlement in auto-ack mode.
	assert.Equal(t, "alpha\nhas\nnewline\n\xff\xfe\n", out.String())
	assert.Zero(t, rec.ackCount())
	assert.Zero(t, rec.rejectCount())
}
