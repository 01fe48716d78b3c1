package cascade

import (
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

// Error codes reported in DeletionResult.Error.
const (
	CodeUserNotFound           = "UserNotFound"
	CodeIdentityDeletionFailed = "IdentityDeletionFailed"
	CodeProfileDeletionFailed  = "ProfileDeletionFailed"
	CodeDeletionInProgress     = "DeletionInProgress"
)

// Status is the outcome of a single step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped" // nothing to match
	StatusBlocked Status = "blocked" // a step it depends on failed
)

// StepOutcome records what a step did and, when it did not succeed, why.
type StepOutcome struct {
	Name   string `json:"name"`
	Table  string `json:"table,omitempty"`
	Fatal  bool   `json:"fatal"`
	Status Status `json:"status"`
	Rows   int64  `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// DeletionResult reports what a deletion did, step by step.
// Success is true when no fatal step failed; failed best-effort steps make it Partial.
type DeletionResult struct {
	UserID          string        `json:"user_id,omitempty"`
	Email           string        `json:"email,omitempty"`
	Role            user.Role     `json:"role,omitempty"`
	Success         bool          `json:"success"`
	Error           string        `json:"error,omitempty"`
	IdentityDeleted bool          `json:"identity_deleted"`
	ProfileDeleted  bool          `json:"profile_deleted"`
	Steps           []StepOutcome `json:"steps,omitempty"`
}

// Failed returns the outcomes of the steps that failed or could not run because of a failure.
func (r DeletionResult) Failed() []StepOutcome {
	var failed []StepOutcome
	for _, s := range r.Steps {
		if s.Status == StatusFailed || s.Status == StatusBlocked {
			failed = append(failed, s)
		}
	}
	return failed
}

// Partial reports whether the user was removed but some dependent records may be left behind.
func (r DeletionResult) Partial() bool {
	return r.Success && len(r.Failed()) > 0
}

// Step returns the outcome of the step called name, if it was recorded.
func (r DeletionResult) Step(name string) (StepOutcome, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepOutcome{}, false
}
