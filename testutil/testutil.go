// Package testutil holds the fakes and fixtures shared by the tests.
package testutil

import (
	"fmt"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/storage/database/inmem"
)

const JWTSecret = "super-secret-jwt-token-with-at-least-32-characters"

func NewConfig() *core.Config {
	return &core.Config{
		Env:                       "TEST",
		TestMode:                  true,
		AppName:                   "Banat Hawaa School",
		SecretKey:                 "test-secret-key",
		FrontendBaseURL:           "https://school.test",
		DefaultFromEmail:          mail.Address{Name: "Banat Hawaa School", Address: "noreply@school.test"},
		PasswordSetupTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Addr:            ":0",
			ShutdownTimeout: time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Supabase: core.SupabaseConfig{
			URL:        "https://project.supabase.test",
			ServiceKey: "service-role-key",
			JWTSecret:  JWTSecret,
		},
		Cascade: core.CascadeConfig{
			CallTimeout: time.Second,
			Attempts:    2,
			RetryDelay:  time.Millisecond,
			LockTTL:     time.Minute,
		},
	}
}

// NewValidator returns a validator with the core and user validations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	return validate, translator
}

// Logger records the messages it is given.
type Logger struct {
	mu       sync.Mutex
	messages []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
	}
	l.messages = append(l.messages, level+": "+msg)
}

// Messages returns the messages logged, as "<LEVEL>: <msg>".
func (l *Logger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

// CreateUser creates the Identity and the Profile of a user.
func CreateUser(t *testing.T, db *inmemdb.DB, ids *IdentityStore, name, email string, role user.Role) user.Profile {
	t.Helper()
	idt := ids.Add(user.Identity{Email: email})
	prof := user.Profile{
		ID:        idt.ID,
		Email:     email,
		FullName:  name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	db.Insert("profiles", inmemdb.ProfileRow(prof))
	return prof
}
