package repository

import (
	"context"
	"errors"
	"fmt"

	"nerdbot/database"
	"nerdbot/events"
	"nerdbot/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	guildRepo        service.GuildRepository
	claimableRepo    service.ClaimableRepository
	userScoreRepo    service.UserScoreRepository
	moderationRepo   service.ModerationRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.guildRepo = newGuildRepositoryWithTx(tx)
	u.claimableRepo = newClaimableRepositoryWithTx(tx)
	u.userScoreRepo = newUserScoreRepositoryWithTx(tx)
	u.moderationRepo = newModerationRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and then releases the events raised inside it
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	return u.transactionalBus.Flush(u.ctx)
}

// Rollback rolls back the transaction. It is a no-op after Commit, so callers
// can always defer it.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil
	u.transactionalBus.Discard()

	return nil
}

// GuildRepository returns the guild repository for this unit of work
func (u *unitOfWork) GuildRepository() service.GuildRepository {
	if u.guildRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.guildRepo
}

// ClaimableRepository returns the claimable repository for this unit of work
func (u *unitOfWork) ClaimableRepository() service.ClaimableRepository {
	if u.claimableRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.claimableRepo
}

// UserScoreRepository returns the user score repository for this unit of work
func (u *unitOfWork) UserScoreRepository() service.UserScoreRepository {
	if u.userScoreRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userScoreRepo
}

// ModerationRepository returns the moderation repository for this unit of work
func (u *unitOfWork) ModerationRepository() service.ModerationRepository {
	if u.moderationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.moderationRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
