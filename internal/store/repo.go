package store

import (
	"context"
	"time"

	"github.com/abhisek/drillz/internal/item"
)

// ItemFilter selects items from the bank. Zero-valued fields place no
// constraint.
type ItemFilter struct {
	// Bands restricts to any of the listed difficulty bands.
	Bands []item.Band

	Kind item.Kind

	// Topics restricts to items tagged with at least one of these topics.
	Topics []string

	// ExcludeLearner and Since exclude items the learner attempted at or
	// after Since. Both must be set for the exclusion to apply.
	ExcludeLearner string
	Since          time.Time

	// IncludeInactive also returns soft-deactivated items.
	IncludeInactive bool

	Limit int
}

// ProfileRecord is the persisted form of a learner profile.
type ProfileRecord struct {
	LearnerID    string
	CorrectCount int
	TotalCount   int
	AvgTime      time.Duration
	Mastery      map[string]float64
	WeakTopics   []string
	UpdatedAt    time.Time
}

// AttemptRecord is one graded submission. Attempts are append-only.
type AttemptRecord struct {
	ID            string
	LearnerID     string
	ItemID        string
	AttemptNumber int
	Submitted     string
	IsCorrect     bool
	Score         float64
	Feedback      string
	Diagnosis     string
	TimeSpent     time.Duration
	HintsUsed     int
	CreatedAt     time.Time
}

// Repository is the storage contract the engine is written against.
type Repository interface {
	// GetProfile returns the learner's profile, or nil if none is stored.
	GetProfile(ctx context.Context, learnerID string) (*ProfileRecord, error)
	PutProfile(ctx context.Context, p *ProfileRecord) error

	QueryItems(ctx context.Context, f ItemFilter) ([]*item.Item, error)

	// GetItem returns ErrNotFound when no item has the given id.
	GetItem(ctx context.Context, id string) (*item.Item, error)

	// PutItem inserts or replaces an item and its topic tags.
	PutItem(ctx context.Context, it *item.Item) error
	SetItemActive(ctx context.Context, id string, active bool) error

	CountAttempts(ctx context.Context, learnerID, itemID string) (int, error)
	AppendAttempt(ctx context.Context, a *AttemptRecord) error

	// ListAttempts returns the learner's most recent attempts, newest first.
	ListAttempts(ctx context.Context, learnerID string, limit int) ([]AttemptRecord, error)
}

// Backend is a Repository that can also run a serialized per-learner
// read-modify-write transaction.
type Backend interface {
	Repository

	// InLearnerTx runs fn in a transaction that excludes every other
	// InLearnerTx for the same learner, across processes. fn's Repository
	// is bound to the transaction.
	InLearnerTx(ctx context.Context, learnerID string, fn func(ctx context.Context, r Repository) error) error
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // id > After
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates LLM calls by purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to the LLM request log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns nil when no event has the given id.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
