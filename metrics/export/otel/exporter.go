package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Constructor errors.
var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MetricsSource is what the exporter observes. *credauth.Engine satisfies it.
type MetricsSource interface {
	MetricsSnapshot() credauth.MetricsSnapshot
	AuditDropped() uint64
}

type sessionGauge interface {
	ActiveSessions() int
}

// observeFunc reports one family from a snapshot taken once per collection.
type observeFunc func(metric.Observer, credauth.MetricsSnapshot)

// OTelExporter bridges engine metrics into an OpenTelemetry meter. Every
// instrument is asynchronous and fed by a single registered callback.
type OTelExporter struct {
	registration metric.Registration
}

// NewOTelExporter registers instruments for engine on meter.
func NewOTelExporter(meter metric.Meter, engine *credauth.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments for a custom source. Histogram
// buckets become one cumulative gauge per histogram with an "le" attribute.
func NewOTelExporterFromSource(meter metric.Meter, source MetricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	var (
		instruments []metric.Observable
		observers   []observeFunc
	)

	for _, def := range internaldefs.CounterDefs {
		counter, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		instruments = append(instruments, counter)
		observers = append(observers, func(o metric.Observer, s credauth.MetricsSnapshot) {
			o.ObserveInt64(counter, int64(s.Counters[def.ID]))
		})
	}

	for _, def := range internaldefs.HistogramDefs {
		fn, added, err := histogram(meter, def)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, added...)
		observers = append(observers, fn)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDropped.Name,
		metric.WithDescription(internaldefs.AuditDropped.Help))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDropped.Name, err)
	}
	instruments = append(instruments, dropped)
	observers = append(observers, func(o metric.Observer, _ credauth.MetricsSnapshot) {
		o.ObserveInt64(dropped, int64(source.AuditDropped()))
	})

	if g, ok := source.(sessionGauge); ok {
		active, err := meter.Int64ObservableGauge(internaldefs.ActiveSessions.Name,
			metric.WithDescription(internaldefs.ActiveSessions.Help))
		if err != nil {
			return nil, fmt.Errorf("gauge %s: %w", internaldefs.ActiveSessions.Name, err)
		}
		instruments = append(instruments, active)
		observers = append(observers, func(o metric.Observer, _ credauth.MetricsSnapshot) {
			o.ObserveInt64(active, int64(g.ActiveSessions()))
		})
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snapshot := source.MetricsSnapshot()
		for _, observe := range observers {
			observe(o, snapshot)
		}
		return nil
	}, instruments...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	return &OTelExporter{registration: registration}, nil
}

func histogram(meter metric.Meter, def internaldefs.HistogramDef) (observeFunc, []metric.Observable, error) {
	buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
		metric.WithDescription(def.Help+" Cumulative count per upper bound."))
	if err != nil {
		return nil, nil, fmt.Errorf("gauge %s_bucket: %w", def.Name, err)
	}
	count, err := meter.Int64ObservableCounter(def.Name+"_count",
		metric.WithDescription(def.Help+" Sample count."))
	if err != nil {
		return nil, nil, fmt.Errorf("counter %s_count: %w", def.Name, err)
	}
	sum, err := meter.Float64ObservableCounter(def.Name+"_sum",
		metric.WithDescription(def.Help+" Total observed time."), metric.WithUnit("s"))
	if err != nil {
		return nil, nil, fmt.Errorf("counter %s_sum: %w", def.Name, err)
	}

	bounds := make([]metric.ObserveOption, len(internaldefs.HistogramBounds))
	for i, le := range internaldefs.HistogramBounds {
		bounds[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String("le", le)))
	}

	fn := func(o metric.Observer, s credauth.MetricsSnapshot) {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(s.Histograms[def.ID]))
		for i, opt := range bounds {
			o.ObserveInt64(buckets, int64(cumulative[i]), opt)
		}
		o.ObserveInt64(count, int64(cumulative[len(cumulative)-1]))
		o.ObserveFloat64(sum, s.HistogramSums[def.ID].Seconds())
	}
	return fn, []metric.Observable{buckets, count, sum}, nil
}

// Close unregisters the callback. Instruments stay registered on the meter.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
