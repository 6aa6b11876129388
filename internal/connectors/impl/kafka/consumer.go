package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
	"golang.org/x/sync/errgroup"

	"github.com/mqpipe/mqpipe/internal/connectors"
)

// Consumer adapts franz-go's poll model to a blocking delivery source.
// A cumulative ack maps to committing the latest record's next offset, which
// covers every earlier record on the same partition.
type Consumer struct {
	conf  Config
	topic string
	cl    *kgo.Client

	records chan *kgo.Record
	eg      *errgroup.Group
	cancel  context.CancelFunc

	l *slog.Logger
}

func NewConsumer(conf Config, opts connectors.ConsumeOptions, l *slog.Logger) (*Consumer, error) {
	topic := opts.Queue
	if topic == "" {
		topic = conf.Topic
	}

	kopts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(conf.Group),
	}
	if conf.AllowAutoTopicCreation {
		kopts = append(kopts, kgo.AllowAutoTopicCreation())
	}
	if !opts.AutoAck {
		kopts = append(kopts, kgo.DisableAutoCommit())
	}
	if opts.Tag != "" {
		kopts = append(kopts, kgo.InstanceID(opts.Tag))
	}

	cl, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: new client: %w", err)
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	eg, pollCtx := errgroup.WithContext(pollCtx)

	maxPoll := opts.Prefetch
	if maxPoll <= 0 {
		maxPoll = 512
	}

	c := &Consumer{
		conf:    conf,
		topic:   topic,
		cl:      cl,
		records: make(chan *kgo.Record),
		eg:      eg,
		cancel:  cancel,
		l:       l.With("consumer_type", "kafka"),
	}

	eg.Go(func() error {
		defer close(c.records)
		for {
			fetches := cl.PollRecords(pollCtx, maxPoll)
			if pollCtx.Err() != nil {
				return nil
			}
			if errs := fetches.Errors(); len(errs) > 0 {
				return fmt.Errorf("kafka: poll fetches: %v", errs)
			}

			iter := fetches.RecordIter()
			for !iter.Done() {
				select {
				case c.records <- iter.Next():
				case <-pollCtx.Done():
					return nil
				}
			}
		}
	})

	return c, nil
}

func (c *Consumer) Next(ctx context.Context) (connectors.Delivery, error) {
	select {
	case r, ok := <-c.records:
		if !ok {
			if err := c.eg.Wait(); err != nil {
				return connectors.Delivery{}, fmt.Errorf("kafka: consume session closed: %w", err)
			}
			return connectors.Delivery{}, fmt.Errorf("kafka: consume session closed")
		}
		return connectors.Delivery{
			Body: r.Value,
			Acker: acker{
				c:         c,
				partition: r.Partition,
				epoch:     r.LeaderEpoch,
				offset:    r.Offset,
			},
		}, nil
	case <-ctx.Done():
		return connectors.Delivery{}, ctx.Err()
	}
}

func (c *Consumer) Close() {
	c.cancel()
	if err := c.eg.Wait(); err != nil {
		c.l.Error("kafka: poll loop", "err", err)
	}
	c.cl.Close()
}

type acker struct {
	c         *Consumer
	partition int32
	epoch     int32
	offset    int64
}

// Ack commits the record's next offset. Offset commits are inherently
// cumulative per partition, so the multiple flag changes nothing here.
func (a acker) Ack(ctx context.Context, _ bool) error {
	offsets := map[string]map[int32]kgo.EpochOffset{
		a.c.topic: {
			a.partition: {
				Epoch:  a.epoch,
				Offset: a.offset + 1,
			},
		},
	}

	var rerr error

	a.c.cl.CommitOffsetsSync(ctx, offsets, func(_ *kgo.Client, _ *kmsg.OffsetCommitRequest, resp *kmsg.OffsetCommitResponse, err error) {
		if err != nil {
			rerr = err
			return
		}

		for _, topic := range resp.Topics {
			for _, partition := range topic.Partitions {
				if err := kerr.ErrorForCode(partition.ErrorCode); err != nil {
					rerr = err
					return
				}
			}
		}
	})

	return rerr
}

// Reject is a no-op: kafka has no per-message reject, an uncommitted record
// is redelivered after a rebalance or restart.
func (a acker) Reject(_ context.Context) error {
	return nil
}
