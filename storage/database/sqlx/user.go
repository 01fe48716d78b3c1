package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

const profileColumns = `id, email, full_name, role, to_char(date_of_birth, 'YYYY-MM-DD') AS date_of_birth, phone, address, created_at`

type profileRepository struct {
	db core.DB
}

var _ user.Repository = (*profileRepository)(nil)

func NewProfileRepository(db core.DB) *profileRepository {
	return &profileRepository{db: db}
}

func getProfile(ctx context.Context, db core.DBExecutor, filter user.GetFilter) (user.Profile, error) {
	var (
		prof user.Profile
		err  error
	)
	switch {
	case filter.ID != "":
		if _, perr := uuid.Parse(filter.ID); perr != nil {
			return user.Profile{}, user.ErrNotFound
		}
		err = db.GetContext(ctx, &prof, db.Rebind(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`), filter.ID)
	case filter.Email != "":
		err = db.GetContext(ctx, &prof, db.Rebind(`SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower(?)`), filter.Email)
	default:
		return user.Profile{}, user.ErrNotFound
	}
	if err != nil {
		return user.Profile{}, trapNoRowsErr(err, user.ErrNotFound, "getting profile")
	}
	return prof, nil
}

func (repo *profileRepository) GetProfile(ctx context.Context, filter user.GetFilter) (user.Profile, error) {
	return getProfile(ctx, repo.db, filter)
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p user.Profile) (user.Profile, error) {
	q := `INSERT INTO profiles (id, email, full_name, role, date_of_birth, phone, address, created_at)
		VALUES (:id, :email, :full_name, :role, :date_of_birth, :phone, :address, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, p); err != nil {
		return user.Profile{}, upstream("creating profile", err)
	}
	return p, nil
}

// CreateEnrollments enrolls the student into every subject, or into none.
func (repo *profileRepository) CreateEnrollments(ctx context.Context, studentID string, subjects []string) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return upstream("starting transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q := tx.Rebind(`INSERT INTO enrollments (student_id, subject) VALUES (?, ?)`)
	for _, subject := range subjects {
		if _, err = tx.ExecContext(ctx, q, studentID, subject); err != nil {
			return upstream("creating enrollment", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return upstream("committing enrollments", errors.WithStack(err))
	}
	return nil
}

func (repo *profileRepository) DeleteEnrollments(ctx context.Context, studentID string) error {
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM enrollments WHERE student_id = ?`), studentID); err != nil {
		return upstream("deleting enrollments", err)
	}
	return nil
}

func (repo *profileRepository) DeleteProfile(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM profiles WHERE id = ?`), id)
	if err != nil {
		return upstream("deleting profile", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}
