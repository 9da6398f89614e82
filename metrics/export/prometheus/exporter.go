package prometheus

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/metrics/export/internaldefs"
)

// ContentType is the text exposition format version written by the exporter.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// MetricsSource is what the exporter reads. *credauth.Engine satisfies it.
type MetricsSource interface {
	MetricsSnapshot() credauth.MetricsSnapshot
	AuditDropped() uint64
}

// sessionGauge is optionally implemented by a MetricsSource.
type sessionGauge interface {
	ActiveSessions() int
}

// PrometheusExporter writes engine metrics as Prometheus text on each scrape.
type PrometheusExporter struct {
	source MetricsSource
}

// NewPrometheusExporter creates an exporter reading from engine.
func NewPrometheusExporter(engine *credauth.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates an exporter from a custom source.
func NewPrometheusExporterFromSource(source MetricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves a fresh rendering on every request.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		_, _ = p.WriteTo(w)
	})
}

// Render returns the exposition text, or "" when the engine records nothing.
func (p *PrometheusExporter) Render() string {
	var b strings.Builder
	_, _ = p.WriteTo(&b)
	return b.String()
}

// WriteTo writes every metric family to w in a fixed order.
func (p *PrometheusExporter) WriteTo(w io.Writer) (int64, error) {
	if p == nil || p.source == nil {
		return 0, nil
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return 0, nil
	}

	out := &textWriter{w: w}
	for _, def := range internaldefs.CounterDefs {
		out.family(def.Name, def.Help, "counter")
		out.sample(def.Name, "", formatUint(snapshot.Counters[def.ID]))
	}

	for _, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		out.family(def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			out.sample(def.Name+"_bucket", `le="`+le+`"`, formatUint(cumulative[i]))
		}
		out.sample(def.Name+"_sum", "", strconv.FormatFloat(snapshot.HistogramSums[def.ID].Seconds(), 'g', -1, 64))
		out.sample(def.Name+"_count", "", formatUint(cumulative[len(cumulative)-1]))
	}

	out.family(internaldefs.AuditDropped.Name, internaldefs.AuditDropped.Help, "counter")
	out.sample(internaldefs.AuditDropped.Name, "", formatUint(dropped))

	if g, ok := p.source.(sessionGauge); ok {
		out.family(internaldefs.ActiveSessions.Name, internaldefs.ActiveSessions.Help, "gauge")
		out.sample(internaldefs.ActiveSessions.Name, "", strconv.Itoa(g.ActiveSessions()))
	}

	return out.n, out.err
}

// textWriter keeps the first write error and the running byte count.
type textWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	n, err := fmt.Fprintf(t.w, format, args...)
	t.n += int64(n)
	t.err = err
}

func (t *textWriter) family(name, help, kind string) {
	t.printf("# HELP %s %s\n# TYPE %s %s\n", name, helpEscaper.Replace(help), name, kind)
}

func (t *textWriter) sample(name, labels, value string) {
	if labels == "" {
		t.printf("%s %s\n", name, value)
		return
	}
	t.printf("%s{%s} %s\n", name, labels, value)
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
