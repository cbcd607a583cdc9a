// Package telemetry turns accepted payloads into trace spans and owns the
// OTLP export pipeline they are handed to.
package telemetry

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zerotwo/sensor-gateway/apierr"
)

const (
	// Span names are fixed per record type; the dashboard queries key on
	// them server-side.
	dataSpanName     = "data"
	locationSpanName = "gps-location"
)

// Emitter converts accepted measurements into spans on the given tracer.
// Emission is fire-and-forget: once a span is ended it belongs to the
// provider's batch processor, and the HTTP response never waits for export.
type Emitter struct {
	tracer trace.Tracer
}

// NewEmitter builds an Emitter drawing spans from the provider.
func NewEmitter(provider trace.TracerProvider) *Emitter {
	return &Emitter{tracer: provider.Tracer("sensor-gateway")}
}

// EmitData records one generic measurement span carrying bucket, timestamp,
// and the serialized payload. The payload is serialized before any span is
// started; a serialization failure produces no span.
func (e *Emitter) EmitData(ctx context.Context, bucket, timestamp string, payload any) error {
	serialized, err := json.Marshal(payload)
	if err != nil {
		return apierr.New(apierr.SerializationFailure, err)
	}

	_, span := e.tracer.Start(ctx, dataSpanName)
	span.SetAttributes(
		attribute.String("bucket", bucket),
		attribute.String("timestamp", timestamp),
		attribute.String("payload", string(serialized)),
	)
	span.End()
	return nil
}

// EmitLocation records one GPS location span carrying bucket and the
// serialized location.
func (e *Emitter) EmitLocation(ctx context.Context, bucket string, location any) error {
	serialized, err := json.Marshal(location)
	if err != nil {
		return apierr.New(apierr.SerializationFailure, err)
	}

	_, span := e.tracer.Start(ctx, locationSpanName)
	span.SetAttributes(
		attribute.String("bucket", bucket),
		attribute.String("location", string(serialized)),
	)
	span.End()
	return nil
}
