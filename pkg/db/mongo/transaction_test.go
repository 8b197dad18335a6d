package mongo

import (
	"context"
	"errors"
	"testing"

	apperrors "masterbook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeSession struct {
	startErr  error
	commitErr error

	started   int
	aborted   int
	committed int
	abortErr  error
}

func (s *fakeSession) StartTransaction(...*options.TransactionOptions) error {
	s.started++
	return s.startErr
}

func (s *fakeSession) AbortTransaction(ctx context.Context) error {
	s.aborted++
	s.abortErr = ctx.Err()
	return nil
}

func (s *fakeSession) CommitTransaction(context.Context) error {
	s.committed++
	return s.commitErr
}

func TestRunOnce_Commits(t *testing.T) {
	sess := &fakeSession{}
	calls := 0

	err := runOnce(context.Background(), sess, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || sess.committed != 1 || sess.aborted != 0 {
		t.Errorf("calls=%d committed=%d aborted=%d", calls, sess.committed, sess.aborted)
	}
}

func TestRunOnce_TransientFailureIsNotRetried(t *testing.T) {
	sess := &fakeSession{}
	transient := errors.New("WriteConflict: TransientTransactionError")
	calls := 0

	err := runOnce(context.Background(), sess, func(context.Context) error {
		calls++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("expected wrapped transient error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("fn ran %d times, want 1", calls)
	}
	if sess.aborted != 1 || sess.committed != 0 {
		t.Errorf("aborted=%d committed=%d", sess.aborted, sess.committed)
	}
}

func TestRunOnce_AppErrorPassesThrough(t *testing.T) {
	sess := &fakeSession{}
	slotTaken := apperrors.SlotTaken("overlap")

	err := runOnce(context.Background(), sess, func(context.Context) error { return slotTaken })
	if err != slotTaken {
		t.Errorf("expected the AppError unchanged, got %v", err)
	}
}

func TestRunOnce_AbortSurvivesCanceledCaller(t *testing.T) {
	sess := &fakeSession{}
	ctx, cancel := context.WithCancel(context.Background())

	_ = runOnce(ctx, sess, func(context.Context) error {
		cancel()
		return context.Canceled
	})
	if sess.aborted != 1 || sess.abortErr != nil {
		t.Error("abort should run on a live context")
	}
}

func TestRunOnce_StartAndCommitErrors(t *testing.T) {
	boom := errors.New("boom")

	err := runOnce(context.Background(), &fakeSession{startErr: boom}, func(context.Context) error {
		t.Error("fn must not run when the transaction did not start")
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("start: got %v", err)
	}

	sess := &fakeSession{commitErr: boom}
	err = runOnce(context.Background(), sess, func(context.Context) error { return nil })
	if !errors.Is(err, boom) || sess.committed != 1 {
		t.Errorf("commit: got %v after %d commits", err, sess.committed)
	}
}
