package inmemdb

import (
	"context"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

type profileRepository struct {
	db *DB
}

var _ user.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfile(ctx context.Context, filter user.GetFilter) (user.Profile, error) {
	return getProfile(ctx, repo.db, filter)
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p user.Profile) (user.Profile, error) {
	if err := ctx.Err(); err != nil {
		return user.Profile{}, err
	}
	if _, err := repo.db.insertRows(cascade.TableProfiles, ProfileRow(p)); err != nil {
		return user.Profile{}, err
	}
	return p, nil
}

func (repo *profileRepository) CreateEnrollments(ctx context.Context, studentID string, subjects []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([]Row, 0, len(subjects))
	for _, subject := range subjects {
		rows = append(rows, Row{"student_id": studentID, "subject": subject})
	}
	_, err := repo.db.insertRows(cascade.TableEnrollments, rows...)
	return err
}

func (repo *profileRepository) DeleteEnrollments(ctx context.Context, studentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := repo.db.deleteRows(cascade.TableEnrollments, "student_id", []string{studentID})
	return err
}

func (repo *profileRepository) DeleteProfile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := repo.db.deleteRows(cascade.TableProfiles, "id", []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}
