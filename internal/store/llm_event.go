package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo over the llm_requests table.
type eventRepo struct {
	q       querier
	dialect string
}

var llmEventColumns = []string{
	"id", "provider", "model", "purpose", "input_tokens", "output_tokens", "latency_ms",
	"success", "error_message", "request_body", "response_body", "created_at",
}

func (r *eventRepo) repo() *repo {
	return &repo{q: r.q, dialect: r.dialect}
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	rp := r.repo()
	ins := rp.sql().Insert("llm_requests").
		Columns(llmEventColumns[1:]...).
		Values(data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens, data.LatencyMs,
			data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody, time.Now().UnixMilli())
	if _, err := rp.exec(ctx, ins); err != nil {
		return wrap("save LLM request event", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	rp := r.repo()
	b := rp.sql()
	t := b.Table("llm_requests")
	sel := b.Select(llmEventColumns...).From(t)

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT(t.C("id"), opts.After))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE(t.C("created_at"), opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE(t.C("created_at"), opts.To.UnixMilli()))
	}
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ(t.C("purpose"), opts.Purpose))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc(t.C("id")))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	events, err := r.scan(ctx, sel)
	if err != nil {
		return nil, wrap("query LLM events", err)
	}
	return events, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error) {
	b := r.repo().sql()
	t := b.Table("llm_requests")
	sel := b.Select(llmEventColumns...).From(t).Where(entsql.EQ(t.C("id"), id))

	events, err := r.scan(ctx, sel)
	if err != nil {
		return nil, wrap("get LLM event", err)
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "model")
}

func (r *eventRepo) usage(ctx context.Context, groupBy string) ([]LLMUsage, error) {
	rp := r.repo()
	b := rp.sql()
	t := b.Table("llm_requests")
	sel := b.Select(
		t.C(groupBy),
		entsql.Count("*"),
		entsql.Sum(t.C("input_tokens")),
		entsql.Sum(t.C("output_tokens")),
		entsql.Avg(t.C("latency_ms")),
	).From(t).GroupBy(t.C(groupBy)).OrderBy(t.C(groupBy))

	rows, err := rp.query(ctx, sel)
	if err != nil {
		return nil, wrap("LLM usage by "+groupBy, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var (
			u             LLMUsage
			key           string
			inTok, outTok int64
			avg           float64
		)
		if err := rows.Scan(&key, &u.Calls, &inTok, &outTok, &avg); err != nil {
			return nil, wrap("LLM usage by "+groupBy, fmt.Errorf("scan: %w", err))
		}
		if groupBy == "model" {
			u.Model = key
		} else {
			u.Purpose = key
		}
		u.InputTokens = int(inTok)
		u.OutputTokens = int(outTok)
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *eventRepo) scan(ctx context.Context, sel *entsql.Selector) ([]LLMRequestEvent, error) {
	rows, err := r.repo().query(ctx, sel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []LLMRequestEvent
	for rows.Next() {
		var (
			e  LLMRequestEvent
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.Provider, &e.Model, &e.Purpose, &e.InputTokens, &e.OutputTokens,
			&e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody, &ts); err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		events = append(events, e)
	}
	return events, rows.Err()
}
