package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/drillz/internal/logger"
	"github.com/abhisek/drillz/internal/store"
)

// EventRecorder persists one row per provider call.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

type instrumented struct {
	inner  Provider
	vendor string
	events EventRecorder
	log    *logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Instrument wraps p so every call gets a trace span, a debug log line and,
// when events is non-nil, a stored request event. Recording failures are
// logged and never fail the call.
func Instrument(p Provider, vendor string, events EventRecorder, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &instrumented{
		inner:  p,
		vendor: vendor,
		events: events,
		log:    log,
		tracer: otel.Tracer("github.com/abhisek/drillz/internal/llm"),
		now:    time.Now,
	}
}

func (i *instrumented) ModelID() string { return i.inner.ModelID() }

func (i *instrumented) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := string(req.Purpose)
	if purpose == "" {
		purpose = "unknown"
	}
	ctx, span := i.tracer.Start(ctx, "llm.Generate", trace.WithAttributes(
		attribute.String("llm.vendor", i.vendor),
		attribute.String("llm.model", i.inner.ModelID()),
		attribute.String("llm.purpose", purpose),
	))
	defer span.End()

	start := i.now()
	resp, err := i.inner.Generate(ctx, req)
	elapsed := i.now().Sub(start)

	ev := store.LLMRequestEventData{
		Provider:    i.vendor,
		Model:       i.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   elapsed.Milliseconds(),
		Success:     err == nil,
		RequestBody: renderRequest(req),
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
		span.SetAttributes(
			attribute.Int("llm.tokens.input", resp.Usage.InputTokens),
			attribute.Int("llm.tokens.output", resp.Usage.OutputTokens),
		)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
	}

	i.log.Debug("llm request", "vendor", i.vendor, "model", ev.Model, "purpose", purpose,
		"latency", elapsed, "ok", ev.Success)

	if i.events != nil {
		// Record even when the caller's deadline already passed.
		if rerr := i.events.AppendLLMRequest(context.WithoutCancel(ctx), ev); rerr != nil {
			i.log.Warn("record llm request", "error", rerr)
		}
	}
	return resp, err
}

func renderRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	fmt.Fprintf(&b, "[user]\n%s\n", req.Prompt)
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "\n[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
