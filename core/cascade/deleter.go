// Package cascade removes a user together with every record that references it,
// across stores that share no transaction.
package cascade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

var (
	// errors
	ErrUserNotFound           = core.NewNotFoundError("user")
	ErrIdentityDeletionFailed = errors.New("identity deletion failed")
	ErrProfileDeletionFailed  = errors.New("profile deletion failed")
	ErrDeletionInProgress     = errors.New("a deletion of this user is already in progress")
	ErrInvalidIdentifier      = core.NewValidationError(
		errors.New("invalid user identifier"),
		core.FieldError{Field: "userId", Error: "a user id or email is required"},
	)
)

type (
	// Records is the Relational Store.
	Records interface {
		GetProfile(ctx context.Context, filter user.GetFilter) (user.Profile, error)
		SelectIDs(ctx context.Context, table, column string, values []string) ([]string, error)
		DeleteRows(ctx context.Context, table, column string, values []string) (int64, error)
	}

	// Identities is the Identity Store.
	Identities interface {
		GetIdentity(ctx context.Context, filter user.GetFilter) (user.Identity, error)
		DeleteIdentity(ctx context.Context, id string) error
	}

	// Blobs is the Blob Store.
	Blobs interface {
		RemovePrefix(ctx context.Context, prefix string) (int, error)
	}

	// Stores is the handle on every store a deletion touches.
	Stores struct {
		Records    Records
		Identities Identities
		Blobs      Blobs
	}

	// Locker serializes the deletions of a same user.
	Locker interface {
		Lock(ctx context.Context, key string) (func(), error)
	}

	// Target is a resolved user.
	Target struct {
		ID         string
		Email      string
		Role       user.Role
		HasProfile bool
	}

	Option func(*Deleter)

	Deleter struct {
		stores      Stores
		locker      Locker
		logger      core.Logger
		callTimeout time.Duration
		attempts    int
		delay       time.Duration
		clock       clock.Clock
	}
)

// WithCallTimeout bounds every call to an external store.
func WithCallTimeout(d time.Duration) Option {
	return func(dl *Deleter) {
		if d > 0 {
			dl.callTimeout = d
		}
	}
}

// WithRetry sets how many times a failing call is attempted, and the delay between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(dl *Deleter) {
		if attempts > 0 {
			dl.attempts = attempts
		}
		if delay > 0 {
			dl.delay = delay
		}
	}
}

func WithClock(clk clock.Clock) Option {
	return func(dl *Deleter) {
		if clk != nil {
			dl.clock = clk
		}
	}
}

func NewDeleter(stores Stores, locker Locker, logger core.Logger, opts ...Option) *Deleter {
	dl := &Deleter{
		stores:      stores,
		locker:      locker,
		logger:      logger,
		callTimeout: 10 * time.Second,
		attempts:    3,
		delay:       200 * time.Millisecond,
		clock:       clock.WallClock,
	}
	for _, opt := range opts {
		opt(dl)
	}
	return dl
}

// Resolve finds the user designated by identifier (an id, or an email if it contains "@").
// The role always comes from the Profile row; role is only used for users without one.
func (dl *Deleter) Resolve(ctx context.Context, identifier string, role user.Role) (Target, error) {
	identifier = core.CleanString(identifier)
	if identifier == "" {
		return Target{}, ErrInvalidIdentifier
	}
	var filter user.GetFilter
	if strings.Contains(identifier, "@") {
		filter.Email = strings.ToLower(identifier)
	} else {
		filter.ID = identifier
	}
	role = user.ParseRole(string(role))

	var prof user.Profile
	err := dl.call(ctx, func(ctx context.Context) (err error) {
		prof, err = dl.stores.Records.GetProfile(ctx, filter)
		return err
	})
	if err == nil {
		if role != "" && role != prof.Role {
			dl.logger.Warn(
				fmt.Sprintf("cascade: requested role %q does not match the stored role %q, using the stored role", role, prof.Role),
				map[string]interface{}{"user_id": prof.ID},
			)
		}
		return Target{ID: prof.ID, Email: strings.ToLower(prof.Email), Role: prof.Role, HasProfile: true}, nil
	}
	if !core.IsNotFound(err) {
		return Target{}, errors.Wrapf(err, "getting profile (%s)", filter)
	}

	var idt user.Identity
	err = dl.call(ctx, func(ctx context.Context) (err error) {
		idt, err = dl.stores.Identities.GetIdentity(ctx, filter)
		return err
	})
	if err != nil {
		if core.IsNotFound(err) {
			return Target{}, ErrUserNotFound
		}
		return Target{}, errors.Wrapf(err, "getting identity (%s)", filter)
	}
	return Target{ID: idt.ID, Email: strings.ToLower(idt.Email), Role: role}, nil
}

// Delete removes the user designated by identifier and everything that references it.
// Best-effort steps that fail are reported in the result; a failing fatal step aborts the deletion.
func (dl *Deleter) Delete(ctx context.Context, identifier string, role user.Role) (DeletionResult, error) {
	target, err := dl.Resolve(ctx, identifier, role)
	if err != nil {
		return resolveFailure(err), err
	}

	release, err := dl.locker.Lock(ctx, "user-deletion:"+target.ID)
	if err != nil {
		res := DeletionResult{UserID: target.ID, Email: target.Email, Role: target.Role}
		if cause := errors.Cause(err); cause == context.DeadlineExceeded || cause == context.Canceled {
			res.Error = CodeDeletionInProgress
			return res, errors.WithMessage(ErrDeletionInProgress, err.Error())
		}
		return res, errors.Wrap(err, "locking user")
	}
	defer release()

	// a concurrent deletion may have completed while we waited
	if target, err = dl.Resolve(ctx, target.ID, role); err != nil {
		return resolveFailure(err), err
	}
	return dl.execute(ctx, target)
}

func resolveFailure(err error) DeletionResult {
	res := DeletionResult{}
	if err == ErrUserNotFound {
		res.Error = CodeUserNotFound
	}
	return res
}

func (dl *Deleter) execute(ctx context.Context, t Target) (DeletionResult, error) {
	res := DeletionResult{UserID: t.ID, Email: t.Email, Role: t.Role}
	values := map[Source][]string{SourceUserID: {t.ID}}
	if t.Email != "" {
		values[SourceEmail] = []string{t.Email}
	}
	failed := make(map[Source]bool)
	extras := map[string]interface{}{"user_id": t.ID, "role": string(t.Role)}

	steps := Plan(t.Role)
	for i, step := range steps {
		out := StepOutcome{Name: step.Name, Table: step.Table, Fatal: step.Fatal}
		if failed[step.Source] || failed[step.DependsOn] {
			out.Status = StatusBlocked
			out.Error = "depends on a failed step"
			if step.Collect != "" {
				failed[step.Collect] = true
			}
			res.Steps = append(res.Steps, out)
			continue
		}

		vals := values[step.Source]
		err := dl.runStep(ctx, step, vals, values, &out)
		if err != nil {
			out.Status = StatusFailed
			out.Error = err.Error()
			if step.Collect != "" {
				failed[step.Collect] = true
			}
		}
		res.Steps = append(res.Steps, out)

		switch step.Kind {
		case KindIdentity:
			res.IdentityDeleted = err == nil
		case KindProfile:
			res.ProfileDeleted = err == nil
		}

		if err == nil {
			continue
		}
		if !step.Fatal {
			dl.logger.Warn(fmt.Sprintf("cascade: %s failed, continuing", step.Name), err, extras)
			continue
		}

		// fatal: the remaining steps do not run
		for _, rest := range steps[i+1:] {
			res.Steps = append(res.Steps, StepOutcome{
				Name: rest.Name, Table: rest.Table, Fatal: rest.Fatal,
				Status: StatusBlocked, Error: "aborted after " + step.Name,
			})
		}
		sentinel := ErrIdentityDeletionFailed
		res.Error = CodeIdentityDeletionFailed
		if step.Kind == KindProfile {
			sentinel = ErrProfileDeletionFailed
			res.Error = CodeProfileDeletionFailed
		}
		dl.logger.Error(fmt.Sprintf("cascade: %s failed, aborting", step.Name), err, extras)
		return res, errors.WithMessage(sentinel, err.Error())
	}

	res.Success = true
	if res.Partial() {
		dl.logger.Warn(fmt.Sprintf("cascade: user %s deleted with %d failed steps", t.ID, len(res.Failed())), extras)
	} else {
		dl.logger.Info(fmt.Sprintf("cascade: user %s deleted", t.ID), extras)
	}
	return res, nil
}

// runStep runs a single step, storing collected ids into values.
func (dl *Deleter) runStep(ctx context.Context, step Step, vals []string, values map[Source][]string, out *StepOutcome) error {
	out.Status = StatusOK
	switch step.Kind {
	case KindFetch:
		if len(vals) == 0 {
			out.Status = StatusSkipped
			return nil
		}
		var ids []string
		err := dl.call(ctx, func(ctx context.Context) (err error) {
			ids, err = dl.stores.Records.SelectIDs(ctx, step.Table, step.Column, vals)
			return err
		})
		if err != nil {
			return err
		}
		values[step.Collect] = ids
		out.Rows = int64(len(ids))

	case KindDelete, KindProfile:
		if len(vals) == 0 {
			out.Status = StatusSkipped
			return nil
		}
		return dl.call(ctx, func(ctx context.Context) (err error) {
			out.Rows, err = dl.stores.Records.DeleteRows(ctx, step.Table, step.Column, vals)
			return err
		})

	case KindBlobs:
		if len(vals) == 0 {
			out.Status = StatusSkipped
			return nil
		}
		var errs []string
		for _, val := range vals {
			var n int
			err := dl.call(ctx, func(ctx context.Context) (err error) {
				n, err = dl.stores.Blobs.RemovePrefix(ctx, val+"/")
				return err
			})
			out.Rows += int64(n)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s/: %v", val, err))
			}
		}
		if len(errs) > 0 {
			return errors.New(strings.Join(errs, "; "))
		}

	case KindIdentity:
		err := dl.call(ctx, func(ctx context.Context) error {
			return dl.stores.Identities.DeleteIdentity(ctx, vals[0])
		})
		if core.IsNotFound(err) {
			return nil // already gone
		}
		if err != nil {
			return err
		}
		out.Rows = 1

	default:
		return errors.Errorf("unknown step kind %v", step.Kind)
	}
	return nil
}

// call runs f with a bounded context, retrying it until it succeeds, fails with an error no retry can fix or runs out of attempts.
func (dl *Deleter) call(ctx context.Context, f func(ctx context.Context) error) error {
	var lastErr error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			cctx, cancel := context.WithTimeout(ctx, dl.callTimeout)
			defer cancel()
			lastErr = f(cctx)
			return lastErr
		},
		IsFatalError: func(err error) bool {
			if core.IsNotFound(err) || ctx.Err() != nil {
				return true
			}
			switch errors.Cause(err).(type) {
			case *core.ValidationError, *core.ConfigError:
				return true
			}
			return false
		},
		Attempts: dl.attempts,
		Delay:    dl.delay,
		Clock:    dl.clock,
		Stop:     ctx.Done(),
	})
	if err != nil && lastErr != nil {
		return lastErr
	}
	return err
}
