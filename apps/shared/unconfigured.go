package shared

import (
	"context"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/message"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

// unconfiguredDB stands in for the Relational Store when DATABASE_URL is not set.
// The server still starts and every call reports the missing key.
type unconfiguredDB struct{}

func (unconfiguredDB) err() error { return core.NewConfigError("DATABASE_URL") }

func (db unconfiguredDB) GetProfile(context.Context, user.GetFilter) (user.Profile, error) {
	return user.Profile{}, db.err()
}

func (db unconfiguredDB) CreateProfile(context.Context, user.Profile) (user.Profile, error) {
	return user.Profile{}, db.err()
}

func (db unconfiguredDB) CreateEnrollments(context.Context, string, []string) error { return db.err() }

func (db unconfiguredDB) DeleteEnrollments(context.Context, string) error { return db.err() }

func (db unconfiguredDB) DeleteProfile(context.Context, string) error { return db.err() }

func (db unconfiguredDB) SelectIDs(context.Context, string, string, []string) ([]string, error) {
	return nil, db.err()
}

func (db unconfiguredDB) DeleteRows(context.Context, string, string, []string) (int64, error) {
	return 0, db.err()
}

func (db unconfiguredDB) GetMessage(context.Context, string) (message.Message, error) {
	return message.Message{}, db.err()
}

func (db unconfiguredDB) DeleteMessage(context.Context, string) error { return db.err() }

// unconfiguredBlobs stands in for the Blob Store when one of the STORAGE_* keys is not set.
type unconfiguredBlobs struct{}

func (unconfiguredBlobs) RemovePrefix(context.Context, string) (int, error) {
	return 0, core.NewConfigError("STORAGE_ENDPOINT", "STORAGE_ACCESS_KEY", "STORAGE_SECRET_KEY", "STORAGE_BUCKET")
}
