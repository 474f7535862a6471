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
	invoicesCreated       metric.Int64Counter
	invoiceEmails         metric.Int64Counter
	documentExports       metric.Int64Counter
	entitlementDenials    metric.Int64Counter
	recurringMaterialized metric.Int64Counter
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
		name = "billfold"
	}
	meter := provider.Meter(name)

	invoicesCreated, err := meter.Int64Counter("billfold_invoices_created_total")
	if err != nil {
		return nil, err
	}
	invoiceEmails, err := meter.Int64Counter("billfold_invoice_emails_total")
	if err != nil {
		return nil, err
	}
	documentExports, err := meter.Int64Counter("billfold_document_exports_total")
	if err != nil {
		return nil, err
	}
	entitlementDenials, err := meter.Int64Counter("billfold_entitlement_denials_total")
	if err != nil {
		return nil, err
	}
	recurringMaterialized, err := meter.Int64Counter("billfold_recurring_materialized_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invoicesCreated:       invoicesCreated,
		invoiceEmails:         invoiceEmails,
		documentExports:       documentExports,
		entitlementDenials:    entitlementDenials,
		recurringMaterialized: recurringMaterialized,
	}, nil
}

// RecordInvoiceCreated increments created invoice counts.
func (m *Metrics) RecordInvoiceCreated(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.invoicesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordInvoiceEmail increments invoice email send attempts.
func (m *Metrics) RecordInvoiceEmail(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.invoiceEmails.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordDocumentExport increments invoice document exports.
func (m *Metrics) RecordDocumentExport(ctx context.Context) {
	if m == nil {
		return
	}
	m.documentExports.Add(ctx, 1)
}

// RecordEntitlementDenial increments denied premium operations.
func (m *Metrics) RecordEntitlementDenial(ctx context.Context, feature string) {
	if m == nil {
		return
	}
	m.entitlementDenials.Add(ctx, 1, metric.WithAttributes(attribute.String("feature", feature)))
}

// RecordRecurringMaterialized increments materialized recurring invoices.
func (m *Metrics) RecordRecurringMaterialized(ctx context.Context, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.recurringMaterialized.Add(ctx, count)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
