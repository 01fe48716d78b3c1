package inmemdb

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/message"
)

type messageRepository struct {
	db *DB
}

var _ message.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) GetMessage(ctx context.Context, id string) (message.Message, error) {
	if err := ctx.Err(); err != nil {
		return message.Message{}, err
	}
	rows, err := repo.db.selectRows(cascade.TableAdminMessages, "id", []string{id})
	if err != nil {
		return message.Message{}, err
	}
	if len(rows) == 0 {
		return message.Message{}, message.ErrNotFound
	}
	row := rows[0]
	msg := message.Message{ID: id}
	if v, ok := row["sender_id"].(string); ok {
		msg.SenderID = null.StringFrom(v)
	}
	if v, ok := row["recipient_id"].(string); ok {
		msg.RecipientID = null.StringFrom(v)
	}
	msg.Subject, _ = row["subject"].(string)
	msg.Body, _ = row["body"].(string)
	msg.CreatedAt, _ = row["created_at"].(time.Time)
	return msg, nil
}

func (repo *messageRepository) DeleteMessage(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := repo.db.deleteRows(cascade.TableAdminMessages, "id", []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return message.ErrNotFound
	}
	return nil
}
