package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/message"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/services/email"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/services/lock"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/storage/blob"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/storage/database/inmem"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	conf    *core.Config
	db      *inmemdb.DB
	ids     *testutil.IdentityStore
	blobs   *blobstore.MemoryStore
	mailSvc *emailsvc.ConsoleServiceMock
	server  *Server
}

func setup(t *testing.T, configure ...func(*core.Config)) *testApp {
	t.Helper()
	conf := testutil.NewConfig()
	for _, c := range configure {
		c(conf)
	}
	logger := &testutil.Logger{}
	validate, translator := testutil.NewValidator()

	app := &testApp{
		conf:  conf,
		db:    inmemdb.Open(),
		ids:   testutil.NewIdentityStore(),
		blobs: blobstore.NewMemoryStore(),
	}
	app.mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)

	usrSvc := user.NewService(user.ServiceDeps{
		Conf:       conf,
		Repo:       inmemdb.NewProfileRepository(app.db),
		Identities: app.ids,
		MailSvc:    app.mailSvc,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})
	deleter := cascade.NewDeleter(
		cascade.Stores{
			Records:    inmemdb.NewRecordsRepository(app.db),
			Identities: app.ids,
			Blobs:      app.blobs,
		},
		locksvc.NewLocalLocker(),
		logger,
		cascade.WithCallTimeout(conf.Cascade.CallTimeout),
		cascade.WithRetry(conf.Cascade.Attempts, conf.Cascade.RetryDelay),
	)

	app.server = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		MessageSvc:     message.NewService(inmemdb.NewMessageRepository(app.db), logger),
		Deleter:        deleter,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = app.server.Close() })
	return app
}

func (app *testApp) createUser(t *testing.T, name, email string, role user.Role) user.Profile {
	return testutil.CreateUser(t, app.db, app.ids, name, email, role)
}

func (app *testApp) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	app.server.ServeHTTP(rec, req)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, prof user.Profile) string {
	token, err := GenerateToken(NewClaims(prof, time.Hour), testutil.JWTSecret)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
