package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	reservationClaims    metric.Int64Counter
	reservationConflicts metric.Int64Counter
	promotionTransitions metric.Int64Counter
	eligibilityChecks    metric.Int64Counter
	badgeAppTransitions  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "meritup"
	}
	meter := provider.Meter(name)

	reservationClaims, err := meter.Int64Counter("meritup_reservation_claims_total")
	if err != nil {
		return nil, err
	}
	reservationConflicts, err := meter.Int64Counter("meritup_reservation_conflicts_total")
	if err != nil {
		return nil, err
	}
	promotionTransitions, err := meter.Int64Counter("meritup_promotion_transitions_total")
	if err != nil {
		return nil, err
	}
	eligibilityChecks, err := meter.Int64Counter("meritup_eligibility_checks_total")
	if err != nil {
		return nil, err
	}
	badgeAppTransitions, err := meter.Int64Counter("meritup_badge_application_transitions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		reservationClaims:    reservationClaims,
		reservationConflicts: reservationConflicts,
		promotionTransitions: promotionTransitions,
		eligibilityChecks:    eligibilityChecks,
		badgeAppTransitions:  badgeAppTransitions,
	}, nil
}

// RecordReservationClaims counts badge applications claimed by a promotion.
func (m *Metrics) RecordReservationClaims(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.reservationClaims.Add(ctx, int64(count))
}

// RecordReservationConflict counts lost reservation races.
func (m *Metrics) RecordReservationConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.reservationConflicts.Add(ctx, 1)
}

// RecordPromotionTransition counts promotion lifecycle transitions by target status.
func (m *Metrics) RecordPromotionTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.promotionTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEligibilityCheck counts validator runs by outcome.
func (m *Metrics) RecordEligibilityCheck(ctx context.Context, valid bool) {
	if m == nil {
		return
	}
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	attrs := FilterAttributes(attribute.String("outcome", outcome))
	m.eligibilityChecks.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBadgeAppTransition counts badge application lifecycle transitions by target status.
func (m *Metrics) RecordBadgeAppTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.badgeAppTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"status":      {},
	"outcome":     {},
	"endpoint":    {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
