package store

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *repo) CountAttempts(ctx context.Context, learnerID, itemID string) (int, error) {
	b := r.sql()
	t := b.Table("attempts")
	sel := b.Select(entsql.Count("*")).From(t).
		Where(entsql.And(
			entsql.EQ(t.C("learner_id"), learnerID),
			entsql.EQ(t.C("item_id"), itemID),
		))

	var n int
	if err := r.queryRow(ctx, sel).Scan(&n); err != nil {
		return 0, wrap("count attempts", err)
	}
	return n, nil
}

func (r *repo) AppendAttempt(ctx context.Context, a *AttemptRecord) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	ins := r.sql().Insert("attempts").
		Columns("id", "learner_id", "item_id", "attempt_number", "submitted", "is_correct", "score",
			"feedback", "diagnosis", "time_spent_ms", "hints_used", "created_at").
		Values(a.ID, a.LearnerID, a.ItemID, a.AttemptNumber, a.Submitted, a.IsCorrect, a.Score,
			a.Feedback, a.Diagnosis, a.TimeSpent.Milliseconds(), a.HintsUsed, toMillis(createdAt))
	if _, err := r.exec(ctx, ins); err != nil {
		return wrap("append attempt", err)
	}
	return nil
}

func (r *repo) ListAttempts(ctx context.Context, learnerID string, limit int) ([]AttemptRecord, error) {
	b := r.sql()
	t := b.Table("attempts")
	sel := b.Select("id", "learner_id", "item_id", "attempt_number", "submitted", "is_correct", "score",
		"feedback", "diagnosis", "time_spent_ms", "hints_used", "created_at").
		From(t).
		Where(entsql.EQ(t.C("learner_id"), learnerID)).
		OrderBy(entsql.Desc(t.C("created_at")), entsql.Desc(t.C("attempt_number")))
	if limit > 0 {
		sel.Limit(limit)
	}

	rows, err := r.query(ctx, sel)
	if err != nil {
		return nil, wrap("list attempts", err)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var (
			a           AttemptRecord
			spentMs     int64
			createdAtMs int64
		)
		if err := rows.Scan(&a.ID, &a.LearnerID, &a.ItemID, &a.AttemptNumber, &a.Submitted, &a.IsCorrect, &a.Score,
			&a.Feedback, &a.Diagnosis, &spentMs, &a.HintsUsed, &createdAtMs); err != nil {
			return nil, wrap("list attempts", err)
		}
		a.TimeSpent = time.Duration(spentMs) * time.Millisecond
		a.CreatedAt = fromMillis(createdAtMs)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list attempts", err)
	}
	return out, nil
}
