package observability

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SampleRatio  float64 `yaml:"sample_ratio"`
	ServiceName  string  `yaml:"service_name"`
}

type Config struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

var (
	metricsEnabled int32
	tracingEnabled int32

	defaultTracer trace.Tracer

	deliveriesTotal *prometheus.CounterVec
	flushesTotal    *prometheus.CounterVec
	ackedTotal      prometheus.Counter
	publishedTotal  prometheus.Counter

	httpSrv *http.Server
)

func MetricsEnabled() bool {
	return atomic.LoadInt32(&metricsEnabled) == 1
}

func TracingEnabled() bool {
	return atomic.LoadInt32(&tracingEnabled) == 1
}

func Tracer() trace.Tracer {
	if defaultTracer != nil {
		return defaultTracer
	}
	return otel.Tracer("mqpipe")
}

func Init(ctx context.Context, cfg Config, l *slog.Logger) (func(context.Context) error, error) {
	shutdownFns := []func(context.Context) error{}

	if cfg.Metrics.Enabled {
		atomic.StoreInt32(&metricsEnabled, 1)
		deliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mqpipe_deliveries_total",
			Help: "Deliveries by classification outcome",
		}, []string{"outcome"})
		flushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mqpipe_ack_flushes_total",
			Help: "Cumulative ack flushes by trigger",
		}, []string{"reason"})
		ackedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqpipe_acked_messages_total",
			Help: "Messages covered by cumulative acks",
		})
		publishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqpipe_published_total",
			Help: "Lines published to the broker",
		})
		prometheus.MustRegister(deliveriesTotal, flushesTotal, ackedTotal, publishedTotal)

		mux := http.NewServeMux()
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, promhttp.Handler())
		httpSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				l.Error("metrics http server", "err", err)
			}
		}()
		l.Info("metrics server started", "addr", cfg.Metrics.Addr)
		shutdownFns = append(shutdownFns, func(ctx context.Context) error { return httpSrv.Shutdown(ctx) })
	}

	if cfg.Tracing.Enabled {
		atomic.StoreInt32(&tracingEnabled, 1)
		var opts []otlptracegrpc.Option
		opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Tracing.OTLPEndpoint))
		if cfg.Tracing.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			l.Error("init otlp exporter", "err", err)
		} else {
			sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))
			serviceName := cfg.Tracing.ServiceName
			if serviceName == "" {
				serviceName = "mqpipe"
			}
			res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
				"",
				attribute.String("service.name", serviceName),
			))
			tp := sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exp),
				sdktrace.WithSampler(sampler),
				sdktrace.WithResource(res),
			)
			otel.SetTracerProvider(tp)
			defaultTracer = tp.Tracer("mqpipe")
			shutdownFns = append(shutdownFns, func(ctx context.Context) error { return tp.Shutdown(ctx) })
		}
	}

	return func(ctx context.Context) error {
		for i := len(shutdownFns) - 1; i >= 0; i-- {
			_ = shutdownFns[i](ctx)
		}
		return nil
	}, nil
}

func IncDelivery(outcome string) {
	if !MetricsEnabled() {
		return
	}
	deliveriesTotal.WithLabelValues(outcome).Inc()
}

func IncFlush(reason string) {
	if !MetricsEnabled() {
		return
	}
	flushesTotal.WithLabelValues(reason).Inc()
}

func AddAcked(n int) {
	if !MetricsEnabled() {
		return
	}
	ackedTotal.Add(float64(n))
}

func IncPublished() {
	if !MetricsEnabled() {
		return
	}
	publishedTotal.Inc()
}
