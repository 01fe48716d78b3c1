package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/juju/clock"
	"github.com/juju/retry"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
)

// Open connects to the Relational Store (Supabase Postgres) and waits for it to be ready.
func Open(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if conf.Database.URL == "" {
		return nil, core.NewConfigError("DATABASE_URL")
	}
	db, err := sqlx.Open("postgres", conf.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(conf.Database.MaxOpenConns)
	}
	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Doubles the delay between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var lastErr error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			lastErr = db.PingContext(ctx)
			return lastErr
		},
		Attempts:    10,
		Delay:       100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		BackoffFunc: retry.DoubleDelay,
		Clock:       clock.WallClock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		if lastErr != nil {
			err = lastErr
		}
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}
