// Package publish reads newline-delimited text and sends one message per
// line, waiting for broker confirmation before reading the next line.
package publish

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/mqpipe/mqpipe/internal/connectors"
	"github.com/mqpipe/mqpipe/internal/observability"
)

const maxLineSize = 1024 * 1024

// Run publishes lines from in until EOF or ctx cancellation. Any publish
// failure is returned immediately; there is no retry.
func Run(ctx context.Context, dst connectors.Publisher, in io.Reader, l *slog.Logger) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		if err := publishLine(ctx, dst, sc.Bytes()); err != nil {
			return err
		}
		observability.IncPublished()
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("publish: read input: %w", err)
	}

	l.Debug("input exhausted")
	return nil
}

func publishLine(ctx context.Context, dst connectors.Publisher, line []byte) error {
	if observability.TracingEnabled() {
		var span trace.Span
		ctx, span = observability.Tracer().Start(ctx, "publish.line")
		defer span.End()
	}

	// The scanner reuses its buffer across lines; connectors may hold the
	// payload past this call.
	payload := make([]byte, len(line))
	copy(payload, line)

	if err := dst.Publish(ctx, payload); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
