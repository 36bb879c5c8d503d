// Package mastery tracks each learner's running accuracy and per-topic
// mastery, and applies the update rule after every graded attempt.
package mastery

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/store"
)

// Model loads, updates and persists learner profiles.
type Model struct {
	repo store.Repository
	cfg  config.Engine
	now  func() time.Time
}

// NewModel creates a mastery model over repo.
func NewModel(repo store.Repository, cfg config.Engine) *Model {
	return &Model{repo: repo, cfg: cfg, now: time.Now}
}

// WithRepo returns a copy of m that reads and writes through repo, used to
// bind the model to a transaction.
func (m *Model) WithRepo(repo store.Repository) *Model {
	c := *m
	c.repo = repo
	return &c
}

// GetProfile returns the learner's profile. An unseen learner gets a fresh
// default profile; it is persisted by the first RecordAttempt.
func (m *Model) GetProfile(ctx context.Context, learnerID string) (*Profile, error) {
	rec, err := m.repo.GetProfile(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", learnerID, err)
	}
	if rec == nil {
		return NewProfile(learnerID), nil
	}
	return fromRecord(rec), nil
}

// Update describes what a recorded attempt changed.
type Update struct {
	// NewlyWeak lists topics that entered the weak set.
	NewlyWeak []string

	// Mastery holds the post-update mastery of every topic on the item.
	Mastery map[string]float64
}

// Apply runs the update rule on p in memory. Correct answers only move the
// counters; a wrong answer lowers mastery of every item topic by the
// configured step, floored at 0, and marks the topic weak.
func (m *Model) Apply(p *Profile, it *item.Item, isCorrect bool, timeSpent time.Duration) Update {
	p.TotalCount++
	if isCorrect {
		p.CorrectCount++
	}
	p.CorrectRate = float64(p.CorrectCount) / float64(p.TotalCount)

	// Running mean: avg += (x - avg) / n.
	delta := float64(timeSpent-p.AverageTimePerItem) / float64(p.TotalCount)
	p.AverageTimePerItem += time.Duration(math.Round(delta))

	if p.MasteryByTopic == nil {
		p.MasteryByTopic = make(map[string]float64)
	}

	u := Update{Mastery: make(map[string]float64, len(it.Topics))}
	for _, topic := range it.Topics {
		cur := p.MasteryOf(topic, m.cfg.DefaultMastery)
		if !isCorrect {
			cur = math.Max(0, cur-m.cfg.MasteryStep)
			p.MasteryByTopic[topic] = cur
			if p.addWeak(topic) {
				u.NewlyWeak = append(u.NewlyWeak, topic)
			}
		}
		u.Mastery[topic] = cur
	}
	p.UpdatedAt = m.now()
	return u
}

// RecordAttempt applies the update rule to p and persists it.
func (m *Model) RecordAttempt(ctx context.Context, p *Profile, it *item.Item, isCorrect bool, timeSpent time.Duration) (Update, error) {
	u := m.Apply(p, it, isCorrect, timeSpent)
	if err := m.repo.PutProfile(ctx, p.record()); err != nil {
		return u, fmt.Errorf("save profile %s: %w", p.LearnerID, err)
	}
	return u, nil
}

// ClearWeakTopic removes topic from the learner's weak set. It is the only
// way a topic leaves the set; grading never removes one. Reports whether
// the topic was present.
func (m *Model) ClearWeakTopic(ctx context.Context, learnerID, topic string) (bool, error) {
	p, err := m.GetProfile(ctx, learnerID)
	if err != nil {
		return false, err
	}
	if !p.removeWeak(topic) {
		return false, nil
	}
	p.UpdatedAt = m.now()
	if err := m.repo.PutProfile(ctx, p.record()); err != nil {
		return false, fmt.Errorf("save profile %s: %w", learnerID, err)
	}
	return true, nil
}
