package sqlxrepos

import (
	"context"

	"github.com/google/uuid"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/message"
)

type messageRepository struct {
	db core.DBExecutor
}

var _ message.Repository = (*messageRepository)(nil)

func NewMessageRepository(db core.DBExecutor) *messageRepository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) GetMessage(ctx context.Context, id string) (message.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return message.Message{}, message.ErrNotFound
	}
	var msg message.Message
	q := repo.db.Rebind(`SELECT id, sender_id, recipient_id, subject, body, created_at FROM admin_messages WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &msg, q, id); err != nil {
		return message.Message{}, trapNoRowsErr(err, message.ErrNotFound, "getting message")
	}
	return msg, nil
}

func (repo *messageRepository) DeleteMessage(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return message.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM admin_messages WHERE id = ?`), id)
	if err != nil {
		return upstream("deleting message", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return message.ErrNotFound
	}
	return nil
}
