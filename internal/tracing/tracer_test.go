package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.False(t, cfg.Enabled)
	require.Equal(t, ExporterFile, cfg.Exporter)
	require.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	require.Equal(t, 1.0, cfg.SampleRate)
	require.Equal(t, "tourscout", cfg.ServiceName)
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	ctx, span := p.Tracer().Start(context.Background(), SpanSearch)
	require.NotNil(t, ctx)
	span.End()
	require.Empty(t, TraceIDFromContext(ctx), "noop spans carry no trace id")

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_FileExporterWritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")

	p, err := NewProvider(Config{
		Enabled:     true,
		Exporter:    ExporterFile,
		FilePath:    path,
		SampleRate:  1.0,
		ServiceName: "test",
	})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	ctx, span := p.Tracer().Start(context.Background(), SpanSearch)
	span.SetAttributes(attribute.String(AttrSearchCountry, "UA"))
	span.AddEvent(EventNotReady)
	require.NotEmpty(t, TraceIDFromContext(ctx))
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan(), "expected one exported span")

	var rec SpanRecord
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
	require.Equal(t, SpanSearch, rec.Name)
	require.Equal(t, "UA", rec.Attributes[AttrSearchCountry])
	require.Len(t, rec.Events, 1)
	require.Equal(t, EventNotReady, rec.Events[0].Name)
}

func TestNewProvider_NoneExporter(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, Exporter: ExporterNone})
	require.NoError(t, err)

	ctx, span := p.Tracer().Start(context.Background(), "x")
	require.NotEmpty(t, TraceIDFromContext(ctx))
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Errors(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: ExporterFile})
	require.ErrorContains(t, err, "file_path required")

	_, err = NewProvider(Config{Enabled: true, Exporter: "zipkin"})
	require.ErrorContains(t, err, "unsupported exporter type: zipkin")
}

func TestValidExporter(t *testing.T) {
	for _, name := range []string{"", "none", "file", "stdout", "otlp"} {
		require.True(t, ValidExporter(name), name)
	}
	require.False(t, ValidExporter("jaeger"))
}

func TestTraceIDFromContext_Nil(t *testing.T) {
	//nolint:staticcheck // SA1012: nil context is the case under test
	require.Empty(t, TraceIDFromContext(nil))
	require.Empty(t, TraceIDFromContext(context.Background()))
}
