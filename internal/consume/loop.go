package consume

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/mqpipe/mqpipe/internal/connectors"
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
	"github.com/mqpipe/mqpipe/internal/observability"
)

const (
	DefaultBatchSize   = 256
	DefaultIdleTimeout = time.Second
)

// ErrNoPendingAcker reports a desynchronized window: the batch counter hit
// the threshold but no acker was retained. It never happens as long as the
// counter only tracks accepted deliveries; treat it as fatal.
var ErrNoPendingAcker = errors.New("consume: batch full with no pending acker")

type Config struct {
	BatchSize       int           `yaml:"batch_size"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	NewlineErrorAck bool          `yaml:"newline_error_ack"`
	ParseErrorAck   bool          `yaml:"parse_error_ack"`
}

func (c *Config) SetDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
}

func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return cerr.ValidationErr("batch_size must be positive")
	}
	if c.IdleTimeout <= 0 {
		return cerr.ValidationErr("idle_timeout must be positive")
	}

	return nil
}

// Loop consumes delivery by delivery, prints accepted text one line per
// message, and acknowledges cumulatively: because an ack on the most recent
// accepted delivery covers every earlier one, the loop only ever retains the
// latest acker. The window flushes when it reaches BatchSize accepted
// deliveries or when the stream stays idle for IdleTimeout.
type Loop struct {
	conf Config
	src  connectors.Consumer
	out  io.Writer
	errw io.Writer
	l    *slog.Logger

	// pending window: count accepted-but-unacknowledged deliveries, acker of
	// the most recent one. Replaced on accept, consumed on flush.
	count int
	acker connectors.Acker
}

func NewLoop(conf Config, src connectors.Consumer, out, errw io.Writer, l *slog.Logger) *Loop {
	return &Loop{
		conf: conf,
		src:  src,
		out:  out,
		errw: errw,
		l:    l.With("component", "consume_loop"),
	}
}

// Run drives the consume sequence until ctx is cancelled or a transport
// failure occurs. On cancellation any pending window is dropped; the broker
// redelivers those messages after its own ack timeout.
func (lp *Loop) Run(ctx context.Context) error {
	for {
		d, err := lp.next(ctx)
		switch {
		case err == nil:
			if err := lp.handle(ctx, d); err != nil {
				return err
			}
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, context.DeadlineExceeded):
			// Idle: nothing arrived within IdleTimeout. Flush whatever is
			// pending so a sparse stream never lingers unacknowledged.
			if lp.acker != nil {
				if err := lp.flush(ctx, "idle"); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("consume: next delivery: %w", err)
		}
	}
}

// next waits for one delivery, bounded by the idle timeout. The timeout is
// re-armed on every call.
func (lp *Loop) next(ctx context.Context) (connectors.Delivery, error) {
	waitCtx, cancel := context.WithTimeout(ctx, lp.conf.IdleTimeout)
	defer cancel()
	return lp.src.Next(waitCtx)
}

func (lp *Loop) handle(ctx context.Context, d connectors.Delivery) error {
	text, v := Classify(d.Body)

	switch v {
	case VerdictAccept:
		if _, err := fmt.Fprintln(lp.out, text); err != nil {
			return fmt.Errorf("consume: write output: %w", err)
		}
		lp.accept(d)
		observability.IncDelivery("accepted")

	case VerdictRejectNewline:
		fmt.Fprintf(lp.errw, "message contains newlines: %s\n", text)
		observability.IncDelivery("rejected_newline")
		if !lp.conf.NewlineErrorAck {
			return lp.reject(ctx, d)
		}
		// Acknowledged but not emitted: it joins the window like an accepted
		// delivery, only the output line is suppressed.
		lp.accept(d)

	case VerdictRejectParseError:
		fmt.Fprintf(lp.errw, "parse error: message is not valid utf-8\n")
		observability.IncDelivery("rejected_parse")
		if !lp.conf.ParseErrorAck {
			return lp.reject(ctx, d)
		}
		lp.accept(d)
	}

	if lp.count == lp.conf.BatchSize {
		return lp.flush(ctx, "batch")
	}
	return nil
}

func (lp *Loop) accept(d connectors.Delivery) {
	lp.acker = d.Acker
	lp.count++
}

// reject settles a single delivery immediately without touching the window.
func (lp *Loop) reject(ctx context.Context, d connectors.Delivery) error {
	if err := d.Acker.Reject(ctx); err != nil {
		return fmt.Errorf("consume: reject: %w", err)
	}
	return nil
}

// flush issues one cumulative ack through the retained acker, covering every
// delivery accepted since the previous flush, and resets the window.
func (lp *Loop) flush(ctx context.Context, reason string) error {
	if lp.acker == nil {
		return ErrNoPendingAcker
	}

	if observability.TracingEnabled() {
		var span trace.Span
		ctx, span = observability.Tracer().Start(ctx, "consume.flush")
		defer span.End()
	}

	acker := lp.acker
	n := lp.count
	lp.acker = nil
	lp.count = 0

	if err := acker.Ack(ctx, true); err != nil {
		return fmt.Errorf("consume: cumulative ack: %w", err)
	}

	observability.IncFlush(reason)
	observability.AddAcked(n)
	lp.l.Debug("flushed ack window", "reason", reason, "count", n)
	return nil
}
