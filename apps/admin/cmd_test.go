package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
	emailsvc "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/services/email"
	locksvc "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/services/lock"
	blobstore "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/storage/blob"
	inmemdb "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/storage/database/inmem"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/testutil"
)

type fixture struct {
	db      *inmemdb.DB
	ids     *testutil.IdentityStore
	mailSvc *emailsvc.ConsoleServiceMock
	out     *bytes.Buffer
	cli     *commandLine
}

func setup() *fixture {
	conf := testutil.NewConfig()
	logger := &testutil.Logger{}
	validate, translator := testutil.NewValidator()

	f := &fixture{
		db:      inmemdb.Open(),
		ids:     testutil.NewIdentityStore(),
		mailSvc: emailsvc.NewConsoleServiceMock(conf, logger),
		out:     new(bytes.Buffer),
	}
	f.cli = &commandLine{
		usrSvc: user.NewService(user.ServiceDeps{
			Conf:       conf,
			Repo:       inmemdb.NewProfileRepository(f.db),
			Identities: f.ids,
			MailSvc:    f.mailSvc,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
		}),
		deleter: cascade.NewDeleter(
			cascade.Stores{
				Records:    inmemdb.NewRecordsRepository(f.db),
				Identities: f.ids,
				Blobs:      blobstore.NewMemoryStore(),
			},
			locksvc.NewLocalLocker(),
			logger,
			cascade.WithCallTimeout(conf.Cascade.CallTimeout),
			cascade.WithRetry(conf.Cascade.Attempts, conf.Cascade.RetryDelay),
		),
		out: f.out,
	}
	return f
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_usage(t *testing.T) {
	f := setup()

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "deleteuser: no args", args: []string{"deleteuser"}, wantErr: errHelp},
		{name: "setpassword: no args", args: []string{"setpassword"}, wantErr: errHelp},
		{name: "inviteuser: no name", args: []string{"inviteuser", "-email", "amina@test.test"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"deleteuser", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, f.cli.run(args))
		})
	}
	assert.Contains(t, f.out.String(), "Usage:")
}

func Test_commandLine_deleteUser(t *testing.T) {
	f := setup()
	amina := testutil.CreateUser(t, f.db, f.ids, "Amina Benali", "amina@test.test", user.RoleStudent)
	khadija := testutil.CreateUser(t, f.db, f.ids, "Khadija Alaoui", "khadija@test.test", user.RoleTeacher)
	orphan := f.ids.Add(user.Identity{Email: "orphan@test.test"})
	f.db.Insert("enrollments", inmemdb.Row{"student_id": amina.ID, "subject": "quran"})

	tests := []cliTest{
		{name: "by id", args: []string{"deleteuser", "-id", amina.ID}},
		{name: "by email", args: []string{"deleteuser", "-email", "KHADIJA@test.test"}},
		{name: "identity only", args: []string{"deleteuser", "-email", orphan.Email, "-role", "student"}},
		{name: "already deleted", args: []string{"deleteuser", "-id", amina.ID}, wantErr: cascade.ErrUserNotFound},
		{name: "unknown", args: []string{"deleteuser", "-email", "nobody@test.test"}, wantErr: cascade.ErrUserNotFound},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, f.cli.run(args))
		})
	}

	for _, id := range []string{amina.ID, khadija.ID, orphan.ID} {
		assert.False(t, f.ids.Has(id))
	}
	assert.Zero(t, f.db.Count("profiles"))
	assert.Zero(t, f.db.Count("enrollments"))
	assert.Contains(t, f.out.String(), "delete enrollments")
	assert.Contains(t, f.out.String(), "(teacher)")
}

func Test_commandLine_deleteUser_identityFailure(t *testing.T) {
	f := setup()
	amina := testutil.CreateUser(t, f.db, f.ids, "Amina Benali", "amina@test.test", user.RoleStudent)
	f.ids.FailOn("delete", errors.New("503 service unavailable"))

	err := f.cli.run([]string{"admin", "deleteuser", "-id", amina.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), cascade.ErrIdentityDeletionFailed.Error())
	assert.Contains(t, f.out.String(), "aborted after delete identity")
	assert.Equal(t, 1, f.db.Count("profiles"))
}

func Test_commandLine_setPassword(t *testing.T) {
	f := setup()
	usr := testutil.CreateUser(t, f.db, f.ids, "Amina Benali", "amina@test.test", user.RoleStudent)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "email but no password", args: []string{"setpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"setpassword", "-email", "lol@test.test"}, extra: extra{pwd: "Zk7#qLm2vR"}, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"setpassword", "-email", usr.Email}, extra: extra{pwd: "amina123"}, wantErrStr: "invalid data"},
		{name: "set", args: []string{"setpassword", "-email", "AMINA@test.test"}, extra: extra{pwd: "Zk7#qLm2vR"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, f.cli.run(args))
		})
	}
	assert.Equal(t, "Zk7#qLm2vR", f.ids.Password(usr.ID))
}

func Test_commandLine_inviteUser(t *testing.T) {
	f := setup()

	err := f.cli.run([]string{"admin", "inviteuser", "-email", "amina@test.test", "-name", "Amina Benali", "-subjects", "quran,arabic"})
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "<amina@test.test> (student)")
	assert.Equal(t, 2, f.db.Count("enrollments"))
	assert.Len(t, f.mailSvc.SentMessages(), 1)

	err = f.cli.run([]string{"admin", "inviteuser", "-email", "khadija@test.test", "-name", "Khadija Alaoui", "-role", "teacher"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.db.Count("enrollments"))

	err = f.cli.run([]string{"admin", "inviteuser", "-email", "amina@test.test", "-name", "Amina Benali"})
	assert.Error(t, err)
}
