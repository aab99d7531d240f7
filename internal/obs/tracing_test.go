package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestPGXTracerRecordsStatement(t *testing.T) {
	rec := withRecorder(t)
	tracer := PGXTracer{}

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "  select id\n  from cart where user_id = $1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("SELECT 2")})

	ctx = tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "DELETE FROM cart"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("deadlock detected")})

	spans := rec.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "db SELECT", spans[0].Name())
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "select id from cart where user_id = $1", attrs["db.statement"])
	require.Equal(t, "2", attrs["db.rows_affected"])
	require.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestTracingNamesSpanAfterRoute(t *testing.T) {
	rec := withRecorder(t)
	r := chi.NewRouter()
	r.Use(Tracing("festbook-cart"))
	r.Get("/v1/cart/summary", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/cart/summary", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "GET /v1/cart/summary", spans[0].Name())
}

func TestInitTracerNone(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{Exporter: "none"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, err = InitTracer(context.Background(), TracingConfig{Exporter: "zipkin"})
	require.Error(t, err)
}
