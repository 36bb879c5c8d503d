package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/drillz/internal/item"
)

var itemColumns = []string{
	"id", "title", "body", "type", "category", "band", "score",
	"options", "hints", "reference", "active", "source", "created_at",
}

func (r *repo) QueryItems(ctx context.Context, f ItemFilter) ([]*item.Item, error) {
	b := r.sql()
	t := b.Table("items")

	cols := make([]string, len(itemColumns))
	for i, c := range itemColumns {
		cols[i] = t.C(c)
	}
	sel := b.Select(cols...).From(t)

	var preds []*entsql.Predicate
	if !f.IncludeInactive {
		preds = append(preds, entsql.EQ(t.C("active"), true))
	}
	if len(f.Bands) > 0 {
		preds = append(preds, entsql.In(t.C("band"), bandArgs(f.Bands)...))
	}
	if f.Kind.Type != "" {
		preds = append(preds, entsql.EQ(t.C("type"), string(f.Kind.Type)))
	}
	if f.Kind.Category != "" {
		preds = append(preds, entsql.EQ(t.C("category"), f.Kind.Category))
	}
	if len(f.Topics) > 0 {
		tt := b.Table("item_topics")
		tagged := b.Select(tt.C("item_id")).From(tt).
			Where(entsql.In(tt.C("topic_id"), anys(f.Topics)...))
		preds = append(preds, entsql.In(t.C("id"), tagged))
	}
	if f.ExcludeLearner != "" && !f.Since.IsZero() {
		at := b.Table("attempts")
		recent := b.Select(at.C("item_id")).From(at).
			Where(entsql.And(
				entsql.EQ(at.C("learner_id"), f.ExcludeLearner),
				entsql.GTE(at.C("created_at"), toMillis(f.Since)),
			))
		preds = append(preds, entsql.NotIn(t.C("id"), recent))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(t.C("created_at"), t.C("id"))
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}

	items, err := r.scanItems(ctx, sel)
	if err != nil {
		return nil, wrap("query items", err)
	}
	if err := r.loadTopics(ctx, items); err != nil {
		return nil, wrap("query items", err)
	}
	return items, nil
}

func (r *repo) GetItem(ctx context.Context, id string) (*item.Item, error) {
	b := r.sql()
	t := b.Table("items")
	sel := b.Select(itemColumns...).From(t).Where(entsql.EQ(t.C("id"), id))

	items, err := r.scanItems(ctx, sel)
	if err != nil {
		return nil, wrap("get item", err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	if err := r.loadTopics(ctx, items); err != nil {
		return nil, wrap("get item", err)
	}
	return items[0], nil
}

func (r *repo) PutItem(ctx context.Context, it *item.Item) error {
	options, err := json.Marshal(nonNil(it.Options))
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	hints, err := json.Marshal(nonNil(it.Hints))
	if err != nil {
		return fmt.Errorf("encode hints: %w", err)
	}
	source := it.Source
	if source == "" {
		source = item.SourceBank
	}

	err = r.atomically(ctx, func(r *repo) error {
		b := r.sql()
		ins := b.Insert("items").
			Columns(itemColumns...).
			Values(it.ID, it.Title, it.Body, string(it.Type), it.Category, string(it.Band), it.Score,
				string(options), string(hints), string(it.Reference), it.Active, string(source), toMillis(it.CreatedAt)).
			OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
		if _, err := r.exec(ctx, ins); err != nil {
			return fmt.Errorf("upsert item: %w", err)
		}

		if _, err := r.exec(ctx, b.Delete("item_topics").Where(entsql.EQ("item_id", it.ID))); err != nil {
			return fmt.Errorf("clear topics: %w", err)
		}
		if len(it.Topics) == 0 {
			return nil
		}
		tags := b.Insert("item_topics").Columns("item_id", "topic_id")
		for _, topic := range dedupe(it.Topics) {
			tags.Values(it.ID, topic)
		}
		if _, err := r.exec(ctx, tags); err != nil {
			return fmt.Errorf("insert topics: %w", err)
		}
		return nil
	})
	return wrap("put item", err)
}

func (r *repo) SetItemActive(ctx context.Context, id string, active bool) error {
	b := r.sql()
	res, err := r.exec(ctx, b.Update("items").Set("active", active).Where(entsql.EQ("id", id)))
	if err != nil {
		return wrap("set item active", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) scanItems(ctx context.Context, sel *entsql.Selector) ([]*item.Item, error) {
	rows, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		var (
			it                        item.Item
			typ, band, source         string
			options, hints, reference string
			createdAt                 int64
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Body, &typ, &it.Category, &band, &it.Score,
			&options, &hints, &reference, &it.Active, &source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Type = item.Type(typ)
		it.Band = item.Band(band)
		it.Source = item.Source(source)
		it.CreatedAt = fromMillis(createdAt)
		if reference != "" {
			it.Reference = json.RawMessage(reference)
		}
		// Options and hints are display data; a corrupt list degrades to
		// empty rather than hiding the item.
		_ = json.Unmarshal([]byte(options), &it.Options)
		_ = json.Unmarshal([]byte(hints), &it.Hints)
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repo) loadTopics(ctx context.Context, items []*item.Item) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[string]*item.Item, len(items))
	ids := make([]any, 0, len(items))
	for _, it := range items {
		byID[it.ID] = it
		ids = append(ids, it.ID)
	}

	b := r.sql()
	tt := b.Table("item_topics")
	sel := b.Select(tt.C("item_id"), tt.C("topic_id")).From(tt).
		Where(entsql.In(tt.C("item_id"), ids...)).
		OrderBy(tt.C("item_id"), tt.C("topic_id"))

	rows, err := r.query(ctx, sel)
	if err != nil {
		return fmt.Errorf("load topics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var itemID, topic string
		if err := rows.Scan(&itemID, &topic); err != nil {
			return fmt.Errorf("scan topic: %w", err)
		}
		if it, ok := byID[itemID]; ok {
			it.Topics = append(it.Topics, topic)
		}
	}
	return rows.Err()
}

func bandArgs(bands []item.Band) []any {
	out := make([]any, len(bands))
	for i, b := range bands {
		out[i] = string(b)
	}
	return out
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func dedupe(xs []string) []string {
	seen := make(map[string]bool, len(xs))
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x == "" || seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	return out
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
