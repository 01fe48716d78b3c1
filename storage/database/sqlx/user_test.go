package sqlxrepos

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/message"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

const profileID = "9b2f0c3e-4a51-4d8e-8b7a-2f3c1d0e5a6b"

var profileRowColumns = []string{"id", "email", "full_name", "role", "date_of_birth", "phone", "address", "created_at"}

func TestProfileRepository_GetProfile(t *testing.T) {
	createdAt := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		filter  user.GetFilter
		query   string
		arg     string
		rows    *sqlmock.Rows
		wantErr error
	}{
		{
			name:   "by id",
			filter: user.GetFilter{ID: profileID},
			query:  `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`,
			arg:    profileID,
			rows: sqlmock.NewRows(profileRowColumns).
				AddRow(profileID, "amina@test.test", "Amina Benali", "student", "2010-03-14", nil, nil, createdAt),
		},
		{
			name:   "by email",
			filter: user.GetFilter{Email: "Amina@Test.test"},
			query:  `SELECT ` + profileColumns + ` FROM profiles WHERE lower(email) = lower($1)`,
			arg:    "Amina@Test.test",
			rows: sqlmock.NewRows(profileRowColumns).
				AddRow(profileID, "amina@test.test", "Amina Benali", "student", "2010-03-14", nil, nil, createdAt),
		},
		{
			name:    "no rows",
			filter:  user.GetFilter{ID: profileID},
			query:   `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`,
			arg:     profileID,
			rows:    sqlmock.NewRows(profileRowColumns),
			wantErr: user.ErrNotFound,
		},
		{
			name:    "malformed id",
			filter:  user.GetFilter{ID: "not-a-uuid"},
			wantErr: user.ErrNotFound,
		},
		{
			name:    "empty filter",
			wantErr: user.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewProfileRepository(db)
			if tt.query != "" {
				mock.ExpectQuery(regexp.QuoteMeta(tt.query)).WithArgs(tt.arg).WillReturnRows(tt.rows)
			}

			prof, err := repo.GetProfile(context.Background(), tt.filter)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("failed! got %v; expected %v", err, tt.wantErr)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, profileID, prof.ID)
				assert.Equal(t, user.RoleStudent, prof.Role)
				assert.Equal(t, null.StringFrom("2010-03-14"), prof.DateOfBirth)
				assert.False(t, prof.Phone.Valid)
				assert.True(t, createdAt.Equal(prof.CreatedAt))
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProfileRepository_GetProfile_UpstreamError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM profiles WHERE id = $1`)).
		WithArgs(profileID).
		WillReturnError(sql.ErrConnDone)

	_, err := repo.GetProfile(context.Background(), user.GetFilter{ID: profileID})
	uerr, ok := errors.Cause(err).(*core.UpstreamError)
	require.True(t, ok, "failed! got %T", err)
	assert.Equal(t, "database", uerr.Store)
	assert.False(t, core.IsNotFound(err))
}

func TestProfileRepository_CreateProfile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)

	p := user.Profile{
		ID:        profileID,
		Email:     "amina@test.test",
		FullName:  "Amina Benali",
		Role:      user.RoleStudent,
		Phone:     null.StringFrom("+212600000000"),
		CreatedAt: time.Now().UTC(),
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO profiles`)).
		WithArgs(p.ID, p.Email, p.FullName, "student", nil, "+212600000000", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.CreateProfile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_CreateEnrollments(t *testing.T) {
	insert := regexp.QuoteMeta(`INSERT INTO enrollments (student_id, subject) VALUES ($1, $2)`)

	t.Run("commits every subject", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProfileRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(insert).WithArgs(profileID, "quran").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insert).WithArgs(profileID, "arabic").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.CreateEnrollments(context.Background(), profileID, []string{"quran", "arabic"}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProfileRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(insert).WithArgs(profileID, "quran").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insert).WithArgs(profileID, "unknown").WillReturnError(errors.New("violates foreign key constraint"))
		mock.ExpectRollback()

		err := repo.CreateEnrollments(context.Background(), profileID, []string{"quran", "unknown"})
		_, ok := errors.Cause(err).(*core.UpstreamError)
		assert.True(t, ok, "failed! got %v", err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProfileRepository_DeleteProfile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)
	del := regexp.QuoteMeta(`DELETE FROM profiles WHERE id = $1`)

	mock.ExpectExec(del).WithArgs(profileID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(del).WithArgs(profileID).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteProfile(context.Background(), profileID))
	if err := repo.DeleteProfile(context.Background(), profileID); err != user.ErrNotFound {
		t.Errorf("failed! got %v; expected %v", err, user.ErrNotFound)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository(t *testing.T) {
	const msgID = "0e7d3c2b-1a09-4f8e-9d6c-5b4a3f2e1d0c"
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM admin_messages WHERE id = $1`)).
		WithArgs(msgID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "subject", "body", "created_at"}).
			AddRow(msgID, profileID, nil, "Welcome", "Classes start Monday", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM admin_messages WHERE id = $1`)).
		WithArgs(msgID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM admin_messages WHERE id = $1`)).
		WithArgs(msgID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	msg, err := repo.GetMessage(context.Background(), msgID)
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom(profileID), msg.SenderID)
	assert.False(t, msg.RecipientID.Valid)

	require.NoError(t, repo.DeleteMessage(context.Background(), msgID))
	assert.Equal(t, message.ErrNotFound, repo.DeleteMessage(context.Background(), msgID))
	assert.Equal(t, message.ErrNotFound, repo.DeleteMessage(context.Background(), "42"))

	require.NoError(t, mock.ExpectationsWereMet())
}
