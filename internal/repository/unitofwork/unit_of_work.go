package unitofwork

import (
	"context"

	"signaware-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	DocumentRepository() contract.DocumentRepository
	ChatMessageRepository() contract.ChatMessageRepository
}
