package message

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
)

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("message")
	ErrInvalidID = core.NewValidationError(
		errors.New("invalid message id"),
		core.FieldError{Field: "messageId", Error: "this field is required"},
	)
)

// Message is a row of the admin_messages table.
type Message struct {
	ID          string      `db:"id" json:"id"`
	SenderID    null.String `db:"sender_id" json:"sender_id"`
	RecipientID null.String `db:"recipient_id" json:"recipient_id"`
	Subject     string      `db:"subject" json:"subject"`
	Body        string      `db:"body" json:"body"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

type (
	Repository interface {
		GetMessage(ctx context.Context, id string) (Message, error)
		DeleteMessage(ctx context.Context, id string) error
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Delete removes an admin message after checking that it exists.
func (svc *Service) Delete(ctx context.Context, id string) error {
	id = core.CleanString(id)
	if id == "" {
		return ErrInvalidID
	}
	if _, err := svc.repo.GetMessage(ctx, id); err != nil {
		if core.IsNotFound(err) {
			return ErrNotFound
		}
		return errors.Wrap(err, "getting message")
	}
	if err := svc.repo.DeleteMessage(ctx, id); err != nil {
		if core.IsNotFound(err) {
			return ErrNotFound // deleted concurrently
		}
		return errors.Wrap(err, "deleting message")
	}
	svc.logger.Info("admin message deleted", map[string]interface{}{"message_id": id})
	return nil
}
