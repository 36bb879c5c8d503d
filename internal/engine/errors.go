package engine

import (
	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/itemgen"
	"github.com/abhisek/drillz/internal/selector"
	"github.com/abhisek/drillz/internal/store"
)

// Errors callers can match with errors.As. GenerationError never reaches
// callers of SelectItem; it is exported for callers that drive the arbiter
// directly.
type (
	ConfigurationError = config.InvalidValueError
	NoCandidateError   = selector.NoCandidateError
	GenerationError    = itemgen.GenerationError
	ItemDataError      = item.DataError
	StoreError         = store.Error
)

// ErrItemNotFound is returned when a submission names an unknown item.
var ErrItemNotFound = store.ErrNotFound
