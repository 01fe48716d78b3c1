package user

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	// Repository holds the profiles and their enrollments in the Relational Store.
	Repository interface {
		GetProfile(ctx context.Context, filter GetFilter) (Profile, error)
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		CreateEnrollments(ctx context.Context, studentID string, subjects []string) error
		DeleteEnrollments(ctx context.Context, studentID string) error
		DeleteProfile(ctx context.Context, id string) error
	}

	// IdentityStore holds the accounts and their credentials.
	IdentityStore interface {
		CreateIdentity(ctx context.Context, email string, metadata map[string]interface{}) (Identity, error)
		GetIdentity(ctx context.Context, filter GetFilter) (Identity, error)
		UpdatePassword(ctx context.Context, id, password string) (Identity, error)
		DeleteIdentity(ctx context.Context, id string) error
	}

	ServiceDeps struct {
		Conf       *core.Config
		Repo       Repository
		Identities IdentityStore
		MailSvc    core.EmailService
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Service struct {
		conf       *core.Config
		repo       Repository
		identities IdentityStore
		mailSvc    core.EmailService
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
		tokens     TokenGenerator
	}
)

func NewService(deps ServiceDeps) *Service {
	return &Service{
		conf:       deps.Conf,
		repo:       deps.Repo,
		identities: deps.Identities,
		mailSvc:    deps.MailSvc,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
		tokens:     NewTokenGenerator(deps.Conf.SecretKey, deps.Conf.PasswordSetupTimeoutDelta),
	}
}

func (svc *Service) validateStruct(s interface{}) error {
	if err := svc.validate.Struct(s); err != nil {
		return core.TranslateErrors(err, svc.translator)
	}
	return nil
}

func (svc *Service) GetProfile(ctx context.Context, filter GetFilter) (Profile, error) {
	filter.Email = core.CleanString(filter.Email, true /* lower */)
	return svc.repo.GetProfile(ctx, filter)
}

// Invite creates the Identity, the Profile and the enrollments of a new user, then emails a password setup link.
// The stores share no transaction: if a later step fails, the records created so far are removed.
func (svc *Service) Invite(ctx context.Context, ns NewStudent) (Profile, error) {
	ns.Clean()
	if err := svc.validateStruct(ns); err != nil {
		return Profile{}, err
	}

	if _, err := svc.repo.GetProfile(ctx, GetFilter{Email: ns.Email}); err == nil {
		return Profile{}, emailExistsError()
	} else if !core.IsNotFound(err) {
		return Profile{}, errors.Wrap(err, "checking email uniqueness")
	}

	idt, err := svc.identities.CreateIdentity(ctx, ns.Email, map[string]interface{}{
		"full_name": ns.FullName,
		"role":      string(ns.Role),
	})
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return Profile{}, emailExistsError()
		}
		return Profile{}, errors.Wrap(err, "creating identity")
	}

	prof, err := svc.repo.CreateProfile(ctx, Profile{
		ID:          idt.ID,
		Email:       ns.Email,
		FullName:    ns.FullName,
		Role:        ns.Role,
		DateOfBirth: nullString(ns.DateOfBirth),
		Phone:       nullString(ns.Phone),
		Address:     nullString(ns.Address),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		svc.compensate(idt.ID, false)
		return Profile{}, errors.Wrap(err, "creating profile")
	}

	if prof.IsStudent() && len(ns.Subjects) > 0 {
		if err := svc.repo.CreateEnrollments(ctx, prof.ID, ns.Subjects); err != nil {
			svc.compensate(idt.ID, true)
			return Profile{}, errors.Wrap(err, "creating enrollments")
		}
	}

	svc.sendSetupPasswordMail(idt, prof)
	return prof, nil
}

// compensate removes the records created by a failed invitation so that it can be retried.
// It does not depend on the request context, which may already be done.
func (svc *Service) compensate(id string, profileCreated bool) {
	ctx, cancel := context.WithTimeout(context.Background(), svc.conf.Cascade.CallTimeout)
	defer cancel()

	if profileCreated {
		if err := svc.repo.DeleteEnrollments(ctx, id); err != nil {
			svc.logger.Error("invite: removing enrollments", err, map[string]interface{}{"user_id": id})
		}
		if err := svc.repo.DeleteProfile(ctx, id); err != nil && !core.IsNotFound(err) {
			svc.logger.Error("invite: removing profile", err, map[string]interface{}{"user_id": id})
		}
	}
	if err := svc.identities.DeleteIdentity(ctx, id); err != nil && !core.IsNotFound(err) {
		svc.logger.Error("invite: removing identity", err, map[string]interface{}{"user_id": id})
	}
}

func (svc *Service) sendSetupPasswordMail(idt Identity, prof Profile) {
	link := fmt.Sprintf("%s/setup-password?token=%s", svc.conf.FrontendBaseURL, url.QueryEscape(svc.tokens.MakeSetupToken(idt)))
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: prof.FullName, Address: prof.Email}},
		Subject:      "Welcome! Set up your password",
		TemplateName: "invite_student",
		TemplateData: map[string]interface{}{
			"Name":      prof.FirstName(),
			"Role":      string(prof.Role),
			"URL":       link,
			"ExpiresIn": humanizeDays(svc.conf.PasswordSetupTimeoutDelta),
		},
	})
}

// SetupPassword sets the password of an invited user holding a valid setup token.
func (svc *Service) SetupPassword(ctx context.Context, sp SetupPassword) error {
	if err := svc.validateStruct(sp); err != nil {
		return err
	}

	invalidToken := core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})
	id, err := ParseSetupToken(sp.Token)
	if err != nil {
		return invalidToken
	}
	idt, err := svc.identities.GetIdentity(ctx, GetFilter{ID: id})
	if err != nil {
		if core.IsNotFound(err) {
			return invalidToken
		}
		return errors.Wrap(err, "getting identity")
	}
	if err := svc.tokens.VerifySetupToken(idt, sp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	var fullName string
	if prof, err := svc.repo.GetProfile(ctx, GetFilter{ID: idt.ID}); err == nil {
		fullName = prof.FullName
	}
	return svc.setPassword(ctx, idt, fullName, sp.Password)
}

// SetPassword sets the password of a user without a token.
func (svc *Service) SetPassword(ctx context.Context, filter GetFilter, password string) error {
	filter.Email = core.CleanString(filter.Email, true /* lower */)
	idt, err := svc.identities.GetIdentity(ctx, filter)
	if err != nil {
		return err
	}
	var fullName string
	if prof, err := svc.repo.GetProfile(ctx, GetFilter{ID: idt.ID}); err == nil {
		fullName = prof.FullName
	}
	return svc.setPassword(ctx, idt, fullName, password)
}

func (svc *Service) setPassword(ctx context.Context, idt Identity, fullName, password string) error {
	if err := svc.validateStruct(newPassword{Password: password, FullName: fullName, Email: idt.Email}); err != nil {
		return err
	}
	if _, err := svc.identities.UpdatePassword(ctx, idt.ID, password); err != nil {
		return errors.Wrap(err, "updating password")
	}
	return nil
}

func emailExistsError() error {
	return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
}

func humanizeDays(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	switch {
	case days > 1:
		return fmt.Sprintf("%d days", days)
	case days == 1:
		return "1 day"
	default:
		return d.String()
	}
}
