package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestInit_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{
		Enabled:        true,
		ServiceName:    "quotewatch-test",
		ServiceVersion: "test",
		Writer:         &buf,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	_, span := StartSpan(context.Background(), "refresh.cycle")
	span.SetAttributes(attribute.String("cycle", "abc"))
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if !strings.Contains(buf.String(), "refresh.cycle") {
		t.Errorf("exported spans missing span name: %s", buf.String())
	}
}
