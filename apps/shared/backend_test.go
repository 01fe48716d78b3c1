package shared_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/apps/shared"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/testutil"
)

func TestNewBackend_InMemory(t *testing.T) {
	conf := testutil.NewConfig()
	logger := &testutil.Logger{}

	b, err := shared.NewBackend(context.Background(), conf, logger)
	require.NoError(t, err)
	defer func() { assert.NoError(t, b.Close()) }()

	require.NotNil(t, b.UserSvc)
	require.NotNil(t, b.MessageSvc)
	require.NotNil(t, b.Deleter)
	assert.Contains(t, logger.Messages(), "WARN: DATABASE_URL is not set: using an in-memory database")
	assert.Contains(t, logger.Messages(), "WARN: the blob store is not configured: using an in-memory store")

	// the empty in-memory database holds no profile
	_, err = b.UserSvc.GetProfile(context.Background(), user.GetFilter{ID: "00000000-0000-0000-0000-000000000000"})
	assert.True(t, err == user.ErrNotFound, "failed! err = %v; want %v", err, user.ErrNotFound)

	_, err = b.Deleter.Delete(context.Background(), "  ", "")
	assert.Equal(t, cascade.ErrInvalidIdentifier, err)
}

func TestNewBackend_MissingStores(t *testing.T) {
	conf := testutil.NewConfig()
	conf.TestMode = false
	logger := &testutil.Logger{}

	b, err := shared.NewBackend(context.Background(), conf, logger)
	require.NoError(t, err)
	defer func() { assert.NoError(t, b.Close()) }()
	assert.Contains(t, logger.Messages(), "WARN: DATABASE_URL is not set: every database call will fail")
	assert.Contains(t, logger.Messages(), "WARN: the blob store is not configured: every file removal will fail")

	_, err = b.UserSvc.GetProfile(context.Background(), user.GetFilter{ID: "00000000-0000-0000-0000-000000000000"})
	var confErr *core.ConfigError
	if !errors.As(err, &confErr) {
		t.Fatalf("failed! err = %v; expected a *core.ConfigError", err)
	}
	assert.Equal(t, []string{"DATABASE_URL"}, confErr.Keys)

	res, err := b.Deleter.Delete(context.Background(), "00000000-0000-0000-0000-000000000000", "")
	assert.False(t, res.Success)
	if !errors.As(err, &confErr) {
		t.Errorf("failed! err = %v; expected a *core.ConfigError", err)
	}
}

func TestNewValidator(t *testing.T) {
	validate, translator := shared.NewValidator()
	require.NotNil(t, translator)

	err := validate.Struct(user.NewStudent{Email: "amina@test.test", FullName: "Amina Benali", Role: "principal"})
	assert.Error(t, err)
	assert.NoError(t, validate.Struct(user.NewStudent{Email: "amina@test.test", FullName: "Amina Benali"}))
}
