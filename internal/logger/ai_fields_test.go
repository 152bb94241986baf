package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCommonFields(t *testing.T) {
	fields := CommonFields("  gemini  ", "gemini-2.5-flash")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldProvider || fields[0].String != "gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if fields[1].Key != FieldModel || fields[1].String != "gemini-2.5-flash" {
		t.Fatalf("unexpected model field: %+v", fields[1])
	}
}

func TestCommonFieldsDropsBlanks(t *testing.T) {
	if fields := CommonFields("", "   "); len(fields) != 0 {
		t.Fatalf("expected no fields for blank values, got %v", fields)
	}

	fields := CommonFields("gemini", "")
	if len(fields) != 1 || fields[0].Key != FieldProvider {
		t.Fatalf("expected only the provider field, got %v", fields)
	}
}

func TestWithFieldsAttaches(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	enriched := WithFields(zap.New(core), CommonFields("gemini", "model-x")...)
	enriched.Info("request sent")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	if len(entries[0].Context) != 2 {
		t.Fatalf("expected 2 attached fields, got %d", len(entries[0].Context))
	}
}

func TestWithFieldsNilLogger(t *testing.T) {
	enriched := WithFields(nil, zap.String("key", "value"))
	if enriched == nil {
		t.Fatalf("expected a usable logger")
	}

	// Must not panic.
	enriched.Info("message")
}
