package consume

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mqpipe/mqpipe/internal/connectors"
	"github.com/mqpipe/mqpipe/internal/observability"
)

// SimpleLoop is the auto-ack variant: the broker settles deliveries at
// receipt, so there is no window and no classification. Every payload is
// printed as one line, as-is.
type SimpleLoop struct {
	src connectors.Consumer
	out io.Writer
	l   *slog.Logger
}

func NewSimpleLoop(src connectors.Consumer, out io.Writer, l *slog.Logger) *SimpleLoop {
	return &SimpleLoop{
		src: src,
		out: out,
		l:   l.With("component", "simple_loop"),
	}
}

func (lp *SimpleLoop) Run(ctx context.Context) error {
	for {
		d, err := lp.src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("consume: next delivery: %w", err)
		}

		if _, err := fmt.Fprintf(lp.out, "%s\n", d.Body); err != nil {
			return fmt.Errorf("consume: write output: %w", err)
		}
		observability.IncDelivery("printed")
	}
}
