// Package shared wires the stores and the services used by the API server and the admin CLI.
package shared

import (
	"context"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/message"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
	authsvc "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/services/auth"
	emailsvc "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/services/email"
	locksvc "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/services/lock"
	blobstore "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/storage/blob"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/storage/database"
	inmemdb "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/storage/database/inmem"
	sqlxrepos "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/storage/database/sqlx"
)

type (
	repositories struct {
		profiles user.Repository
		records  cascade.Records
		messages message.Repository
	}

	// Backend holds the services built on top of the stores.
	Backend struct {
		Validate   *validator.Validate
		Translator ut.Translator
		UserSvc    *user.Service
		MessageSvc *message.Service
		Deleter    *cascade.Deleter

		closers []func() error
	}
)

// NewBackend connects to the stores and builds the services.
// In debug and test modes the Relational Store and the Blob Store fall back to in-memory implementations when not configured.
// Otherwise they are replaced by stores answering every call with a *core.ConfigError, so the API keeps serving 500s.
func NewBackend(ctx context.Context, conf *core.Config, logger core.Logger) (*Backend, error) {
	b := new(Backend)
	b.Validate, b.Translator = NewValidator()

	repos, err := b.setUpDB(ctx, conf, logger)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	blobs, err := setUpBlobs(ctx, conf, logger)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	locker, err := b.setUpLocker(ctx, conf, logger)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	b.UserSvc = user.NewService(user.ServiceDeps{
		Conf:       conf,
		Repo:       repos.profiles,
		Identities: authsvc.NewClient(conf.Supabase, authsvc.WithRetry(conf.Cascade.Attempts, conf.Cascade.RetryDelay, nil)),
		MailSvc:    emailsvc.New(conf, logger),
		Logger:     logger,
		Validate:   b.Validate,
		Translator: b.Translator,
	})
	b.MessageSvc = message.NewService(repos.messages, logger)
	b.Deleter = cascade.NewDeleter(
		cascade.Stores{Records: repos.records, Identities: newCascadeIdentities(conf), Blobs: blobs},
		locker,
		logger,
		cascade.WithCallTimeout(conf.Cascade.CallTimeout),
		cascade.WithRetry(conf.Cascade.Attempts, conf.Cascade.RetryDelay),
	)
	return b, nil
}

// newCascadeIdentities returns the identities client of the deleter.
// The deleter retries every call itself, so the client makes a single attempt.
func newCascadeIdentities(conf *core.Config) *authsvc.Client {
	return authsvc.NewClient(conf.Supabase, authsvc.WithRetry(1, conf.Cascade.RetryDelay, nil))
}

func (b *Backend) setUpDB(ctx context.Context, conf *core.Config, logger core.Logger) (repositories, error) {
	if conf.Database.URL == "" && (conf.Debug || conf.TestMode) {
		logger.Warn("DATABASE_URL is not set: using an in-memory database")
		db := inmemdb.Open()
		return repositories{
			profiles: inmemdb.NewProfileRepository(db),
			records:  inmemdb.NewRecordsRepository(db),
			messages: inmemdb.NewMessageRepository(db),
		}, nil
	}

	if conf.Database.URL == "" {
		logger.Warn("DATABASE_URL is not set: every database call will fail")
		var db unconfiguredDB
		return repositories{profiles: db, records: db, messages: db}, nil
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return repositories{}, errors.Wrap(err, "setting up database")
	}
	b.closers = append(b.closers, db.Close)
	return repositories{
		profiles: sqlxrepos.NewProfileRepository(db),
		records:  sqlxrepos.NewRecordsRepository(db),
		messages: sqlxrepos.NewMessageRepository(db),
	}, nil
}

func setUpBlobs(ctx context.Context, conf *core.Config, logger core.Logger) (cascade.Blobs, error) {
	if !conf.StorageConfigured() && (conf.Debug || conf.TestMode) {
		logger.Warn("the blob store is not configured: using an in-memory store")
		return blobstore.NewMemoryStore(), nil
	}
	if !conf.StorageConfigured() {
		logger.Warn("the blob store is not configured: every file removal will fail")
		return unconfiguredBlobs{}, nil
	}
	s, err := blobstore.NewS3Store(ctx, conf.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "setting up blob store")
	}
	return s, nil
}

// setUpLocker returns a Redis locker shared by every instance when REDIS_ADDR is set, a process local one otherwise.
func (b *Backend) setUpLocker(ctx context.Context, conf *core.Config, logger core.Logger) (cascade.Locker, error) {
	if conf.Redis.Addr == "" {
		return locksvc.NewLocalLocker(), nil
	}
	client, err := locksvc.NewRedisClient(ctx, conf.Redis)
	if err != nil {
		return nil, errors.Wrap(err, "setting up locker")
	}
	b.closers = append(b.closers, client.Close)
	return locksvc.NewRedisLocker(client, conf.Cascade.LockTTL, logger), nil
}

// Close releases the connections to the stores.
func (b *Backend) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}

// NewValidator returns a validator with the english translations of every validation tag.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	return validate, translator
}
