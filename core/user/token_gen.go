package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	salt    = []byte("banathawaa.core.user.token_gen")
	nowFunc = time.Now // mockable

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// TokenGenerator makes and checks password setup tokens:
// `<base64url(uid)>.<base32(days since 2001)>-<signature>`.
// The signature covers the identity's updated_at, so a token stops working once the password is set.
type TokenGenerator struct {
	secretKey []byte
	timeout   time.Duration
}

func NewTokenGenerator(secretKey string, timeout time.Duration) TokenGenerator {
	return TokenGenerator{secretKey: []byte(secretKey), timeout: timeout}
}

// MakeSetupToken generates a password setup token for a given Identity.
func (g TokenGenerator) MakeSetupToken(idt Identity) string {
	uid := base64.RawURLEncoding.EncodeToString([]byte(idt.ID))
	return uid + "." + g.makeTokenWithTimestamp(idt, numDaysSince2001(nowFunc()))
}

// ParseSetupToken returns the user ID carried by a password setup token.
func ParseSetupToken(token string) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", errInvalidToken
	}
	idBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(idBytes) == 0 {
		return "", errInvalidToken
	}
	return string(idBytes), nil
}

// VerifySetupToken checks that a password setup token for a given Identity is valid.
func (g TokenGenerator) VerifySetupToken(idt Identity, token string) error {
	uid, err := ParseSetupToken(token)
	if err != nil {
		return err
	}
	if uid != idt.ID {
		return errInvalidToken
	}
	token = token[strings.Index(token, ".")+1:]

	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}

	data, err := b32.DecodeString(parts[0])
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return errInvalidToken
	}

	// check that token has not been tampered with
	if subtle.ConstantTimeCompare([]byte(g.makeTokenWithTimestamp(idt, ts)), []byte(token)) == 0 {
		return errInvalidToken
	}

	// check that the timestamp is within limit
	if (numDaysSince2001(nowFunc()) - ts) > int(g.timeout/(24*time.Hour)) {
		return errTokenExpired
	}
	return nil
}

func (g TokenGenerator) makeTokenWithTimestamp(idt Identity, ts int) string {
	tsB32 := b32.EncodeToString([]byte(strconv.Itoa(ts)))
	return fmt.Sprintf("%s-%s", tsB32, g.sign(hashValue(idt, ts)))
}

func (g TokenGenerator) sign(val []byte) string {
	key := sha256.Sum256(append(append([]byte{}, salt...), g.secretKey...))
	h := hmac.New(sha256.New, key[:])
	h.Write(val)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func numDaysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}

func hashValue(idt Identity, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(idt.ID)
	val.WriteString(strings.ToLower(idt.Email))
	if !idt.UpdatedAt.IsZero() {
		val.WriteString(idt.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}
