package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"github.com/mqpipe/mqpipe/internal/config"
	"github.com/mqpipe/mqpipe/internal/connectors"
	"github.com/mqpipe/mqpipe/internal/connectors/consumer"
	"github.com/mqpipe/mqpipe/internal/connectors/protocol"
	"github.com/mqpipe/mqpipe/internal/connectors/publisher"
	"github.com/mqpipe/mqpipe/internal/consume"
	"github.com/mqpipe/mqpipe/internal/observability"
	"github.com/mqpipe/mqpipe/internal/publish"
)

// Commit is stamped at build time via -ldflags.
var Commit string

func main() {
	app := &cli.App{
		Name:    "mqpipe",
		Usage:   "pipe lines between stdio and a message broker",
		Version: Commit,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "broker address",
				EnvVars: []string{"MQPIPE_ADDR"},
			},
			&cli.StringFlag{
				Name:    "protocol",
				Aliases: []string{"b"},
				Usage:   "broker protocol (amqp091, amqp10, kafka, nats_core, redis_pubsub, mqtt, nsq)",
				EnvVars: []string{"MQPIPE_PROTOCOL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"f"},
				Usage:   "path to YAML config file",
				EnvVars: []string{"MQPIPE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "consume",
				Usage:     "read messages from the broker and write them line by line to stdout",
				ArgsUsage: "<queue>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "consumer-tag",
						Aliases: []string{"c"},
						Usage:   "identifies the consume session",
					},
					&cli.BoolFlag{
						Name:    "newline-error-ack",
						Aliases: []string{"n"},
						Usage:   "acknowledge messages containing newlines",
					},
					&cli.BoolFlag{
						Name:    "parse-error-ack",
						Aliases: []string{"p"},
						Usage:   "acknowledge messages which cannot be parsed as utf-8",
					},
					&cli.BoolFlag{
						Name:  "no-ack",
						Usage: "auto-acknowledge at receipt and print everything (no ack window)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "deliveries covered by one cumulative ack",
					},
					&cli.DurationFlag{
						Name:  "idle-timeout",
						Usage: "flush the pending ack window after this much silence",
					},
				},
				Action: runConsume,
			},
			{
				Name:  "publish",
				Usage: "read lines from stdin and write them to the broker",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "exchange",
						Aliases: []string{"e"},
						Usage:   "destination exchange (amqp091)",
					},
					&cli.StringFlag{
						Name:    "routing-key",
						Aliases: []string{"r"},
						Usage:   "routing key, topic, subject or channel",
					},
				},
				Action: runPublish,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runConsume(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: mqpipe consume <queue>", 2)
	}

	conf, l, err := setup(c)
	if err != nil {
		return err
	}

	loopConf := conf.Consume
	if c.IsSet("batch-size") {
		loopConf.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("idle-timeout") {
		loopConf.IdleTimeout = c.Duration("idle-timeout")
	}
	if c.IsSet("newline-error-ack") {
		loopConf.NewlineErrorAck = c.Bool("newline-error-ack")
	}
	if c.IsSet("parse-error-ack") {
		loopConf.ParseErrorAck = c.Bool("parse-error-ack")
	}
	if err := loopConf.Validate(); err != nil {
		return fmt.Errorf("consume config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	shutdown, err := observability.Init(ctx, conf.Observability, l)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer shutdownWithTimeout(shutdown)

	opts := connectors.ConsumeOptions{
		Queue:   c.Args().First(),
		Tag:     c.String("consumer-tag"),
		AutoAck: c.Bool("no-ack"),
		// Let the broker keep the pipe full while a batch is assembled.
		Prefetch: 2 * loopConf.BatchSize,
	}

	src, err := consumer.New(conf.Broker, opts, l)
	if err != nil {
		return fmt.Errorf("connect consumer: %w", err)
	}
	defer src.Close()

	l.Info("consuming", "protocol", conf.Broker.Protocol, "queue", opts.Queue)

	if opts.AutoAck {
		return consume.NewSimpleLoop(src, os.Stdout, l).Run(ctx)
	}
	return consume.NewLoop(loopConf, src, os.Stdout, os.Stderr, l).Run(ctx)
}

func runPublish(c *cli.Context) error {
	conf, l, err := setup(c)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	shutdown, err := observability.Init(ctx, conf.Observability, l)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer shutdownWithTimeout(shutdown)

	opts := connectors.PublishOptions{
		Exchange:   c.String("exchange"),
		RoutingKey: c.String("routing-key"),
	}

	dst, err := publisher.New(conf.Broker, opts, l)
	if err != nil {
		return fmt.Errorf("connect publisher: %w", err)
	}
	defer dst.Close()

	l.Info("publishing", "protocol", conf.Broker.Protocol)

	return publish.Run(ctx, dst, os.Stdin, l)
}

func setup(c *cli.Context) (config.Config, *slog.Logger, error) {
	var conf config.Config
	if err := config.Load(c.String("config"), &conf); err != nil {
		return conf, nil, fmt.Errorf("load config: %w", err)
	}

	if c.IsSet("protocol") {
		conf.Broker.Protocol = protocol.Protocol(c.String("protocol"))
	}
	if c.IsSet("addr") {
		applyAddr(&conf, c.String("addr"))
	}

	if err := conf.Validate(); err != nil {
		return conf, nil, err
	}

	return conf, newLogger(conf.Log), nil
}

// applyAddr routes the --addr flag into the selected protocol's config.
func applyAddr(conf *config.Config, addr string) {
	switch conf.Broker.Protocol {
	case protocol.AMQP091:
		conf.Broker.AMQP091.URL = addr
	case protocol.AMQP10:
		conf.Broker.AMQP10.Addr = addr
	case protocol.Kafka:
		conf.Broker.Kafka.Brokers = strings.Split(addr, ",")
	case protocol.NatsCore:
		conf.Broker.NatsCore.URL = addr
	case protocol.RedisPubSub:
		conf.Broker.RedisPubSub.InitAddress = strings.Split(addr, ",")
	case protocol.MQTT:
		conf.Broker.MQTT.Broker = addr
	case protocol.NSQ:
		conf.Broker.NSQ.NSQDAddr = addr
	}
}

func newLogger(conf config.LogConfig) *slog.Logger {
	level := parseLogLevel(conf.Level)

	// stdout is the data plane; every log record goes to stderr.
	switch conf.Type {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	default:
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	}
}

func parseLogLevel(name string) slog.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func shutdownWithTimeout(shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = shutdown(ctx)
}
