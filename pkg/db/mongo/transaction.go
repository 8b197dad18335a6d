package mongo

import (
	"context"
	"fmt"
	"time"

	apperrors "masterbook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const abortTimeout = 2 * time.Second

// TransactionFunc runs inside a transaction. ctx carries the session and must be
// passed to every collection call that should take part in it.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
	}
}

func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	return runOnce(mongo.NewSessionContext(ctx, session), session, fn)
}

type txSession interface {
	StartTransaction(opts ...*options.TransactionOptions) error
	AbortTransaction(ctx context.Context) error
	CommitTransaction(ctx context.Context) error
}

// runOnce makes a single transaction attempt. A transient failure is returned
// to the caller instead of rerunning fn.
func runOnce(ctx context.Context, tx txSession, fn TransactionFunc) error {
	if err := tx.StartTransaction(); err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := fn(ctx); err != nil {
		abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
		defer cancel()
		_ = tx.AbortTransaction(abortCtx)

		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	if err := tx.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// NoTransaction runs fn directly. It backs in-memory stores and tests.
type NoTransaction struct{}

func (NoTransaction) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	return fn(ctx)
}
