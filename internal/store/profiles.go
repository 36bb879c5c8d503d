package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *repo) GetProfile(ctx context.Context, learnerID string) (*ProfileRecord, error) {
	b := r.sql()
	t := b.Table("profiles")
	sel := b.Select("learner_id", "correct_count", "total_count", "avg_time_ms", "mastery", "weak_topics", "updated_at").
		From(t).
		Where(entsql.EQ(t.C("learner_id"), learnerID))

	var (
		p         ProfileRecord
		avgMs     int64
		updatedAt int64
		mastery   string
		weak      string
	)
	err := r.queryRow(ctx, sel).Scan(&p.LearnerID, &p.CorrectCount, &p.TotalCount, &avgMs, &mastery, &weak, &updatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get profile", err)
	}
	if err := json.Unmarshal([]byte(mastery), &p.Mastery); err != nil {
		return nil, wrap("get profile", fmt.Errorf("decode mastery: %w", err))
	}
	if err := json.Unmarshal([]byte(weak), &p.WeakTopics); err != nil {
		return nil, wrap("get profile", fmt.Errorf("decode weak topics: %w", err))
	}
	if p.Mastery == nil {
		p.Mastery = make(map[string]float64)
	}
	p.AvgTime = time.Duration(avgMs) * time.Millisecond
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}

func (r *repo) PutProfile(ctx context.Context, p *ProfileRecord) error {
	mastery := p.Mastery
	if mastery == nil {
		mastery = map[string]float64{}
	}
	mj, err := json.Marshal(mastery)
	if err != nil {
		return fmt.Errorf("encode mastery: %w", err)
	}
	weak := append([]string{}, p.WeakTopics...)
	sort.Strings(weak)
	wj, err := json.Marshal(weak)
	if err != nil {
		return fmt.Errorf("encode weak topics: %w", err)
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	ins := r.sql().Insert("profiles").
		Columns("learner_id", "correct_count", "total_count", "avg_time_ms", "mastery", "weak_topics", "updated_at").
		Values(p.LearnerID, p.CorrectCount, p.TotalCount, p.AvgTime.Milliseconds(), string(mj), string(wj), toMillis(updatedAt)).
		OnConflict(entsql.ConflictColumns("learner_id"), entsql.ResolveWithNewValues())
	if _, err := r.exec(ctx, ins); err != nil {
		return wrap("put profile", err)
	}
	return nil
}
