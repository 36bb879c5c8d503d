package mastery

import (
	"sort"
	"time"

	"github.com/abhisek/drillz/internal/store"
)

// Profile is a learner's running performance and per-topic mastery.
type Profile struct {
	LearnerID string

	CorrectCount int
	TotalCount   int

	// CorrectRate is CorrectCount/TotalCount, or 0 before the first attempt.
	CorrectRate float64

	// AverageTimePerItem is the running mean of time spent per attempt.
	AverageTimePerItem time.Duration

	// MasteryByTopic holds mastery in [0,1] for every topic the learner
	// has been graded on. Topics not present are at the default mastery.
	MasteryByTopic map[string]float64

	// WeakTopics is kept sorted and free of duplicates.
	WeakTopics []string

	UpdatedAt time.Time
}

// MasteryOf returns the learner's mastery of topic, or def when the learner
// has never been graded on it.
func (p *Profile) MasteryOf(topic string, def float64) float64 {
	if m, ok := p.MasteryByTopic[topic]; ok {
		return m
	}
	return def
}

// IsWeak reports whether topic is in the weak set.
func (p *Profile) IsWeak(topic string) bool {
	i := sort.SearchStrings(p.WeakTopics, topic)
	return i < len(p.WeakTopics) && p.WeakTopics[i] == topic
}

// HasAttempts reports whether any attempt has been recorded.
func (p *Profile) HasAttempts() bool {
	return p.TotalCount > 0
}

// addWeak inserts topic into the weak set and reports whether it was new.
func (p *Profile) addWeak(topic string) bool {
	i := sort.SearchStrings(p.WeakTopics, topic)
	if i < len(p.WeakTopics) && p.WeakTopics[i] == topic {
		return false
	}
	p.WeakTopics = append(p.WeakTopics, "")
	copy(p.WeakTopics[i+1:], p.WeakTopics[i:])
	p.WeakTopics[i] = topic
	return true
}

func (p *Profile) removeWeak(topic string) bool {
	i := sort.SearchStrings(p.WeakTopics, topic)
	if i >= len(p.WeakTopics) || p.WeakTopics[i] != topic {
		return false
	}
	p.WeakTopics = append(p.WeakTopics[:i], p.WeakTopics[i+1:]...)
	return true
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.MasteryByTopic = make(map[string]float64, len(p.MasteryByTopic))
	for k, v := range p.MasteryByTopic {
		c.MasteryByTopic[k] = v
	}
	c.WeakTopics = append([]string(nil), p.WeakTopics...)
	return &c
}

// NewProfile returns an empty profile for a learner with no attempts.
func NewProfile(learnerID string) *Profile {
	return &Profile{
		LearnerID:      learnerID,
		MasteryByTopic: make(map[string]float64),
	}
}

func fromRecord(r *store.ProfileRecord) *Profile {
	p := NewProfile(r.LearnerID)
	p.CorrectCount = r.CorrectCount
	p.TotalCount = r.TotalCount
	p.AverageTimePerItem = r.AvgTime
	p.UpdatedAt = r.UpdatedAt
	if p.TotalCount > 0 {
		p.CorrectRate = float64(p.CorrectCount) / float64(p.TotalCount)
	}
	for k, v := range r.Mastery {
		p.MasteryByTopic[k] = v
	}
	for _, t := range r.WeakTopics {
		p.addWeak(t)
	}
	return p
}

func (p *Profile) record() *store.ProfileRecord {
	mastery := make(map[string]float64, len(p.MasteryByTopic))
	for k, v := range p.MasteryByTopic {
		mastery[k] = v
	}
	return &store.ProfileRecord{
		LearnerID:    p.LearnerID,
		CorrectCount: p.CorrectCount,
		TotalCount:   p.TotalCount,
		AvgTime:      p.AverageTimePerItem,
		Mastery:      mastery,
		WeakTopics:   append([]string(nil), p.WeakTopics...),
		UpdatedAt:    p.UpdatedAt,
	}
}
