package engine

import (
	"github.com/louisbranch/ladder/internal/services/ladder/storage"
)

// Outcome tags the effect a mutation had, so callers never have to infer it
// from a nullable return.
type Outcome string

const (
	// OutcomeCreated reports a row that did not exist before the call.
	OutcomeCreated Outcome = "CREATED"
	// OutcomeAlreadyExists reports an ensure that found its row in place.
	OutcomeAlreadyExists Outcome = "ALREADY_EXISTS"
	// OutcomeUpdated reports an update that wrote at least one column.
	OutcomeUpdated Outcome = "UPDATED"
	// OutcomeNotFound reports an update with nothing to write to.
	OutcomeNotFound Outcome = "NOT_FOUND"
)

// TenantResult reports the effect of a tenant ensure. The record is only
// populated for OutcomeCreated.
type TenantResult struct {
	Outcome Outcome
	Tenant  storage.TenantRecord
}

// ProfileResult reports the effect of a profile ensure. The record is only
// populated for OutcomeCreated.
type ProfileResult struct {
	Outcome Outcome
	Profile storage.ProfileRecord
}

// UpdateResult reports the effect of a partial update. Applied names the
// columns actually written, keyed by column name.
type UpdateResult struct {
	Outcome Outcome
	Applied storage.AppliedFields
}
