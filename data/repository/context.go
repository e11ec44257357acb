package repository

import "context"

type rowLockKey struct{}

type snapshotKey struct{}

// WithRowLock asks repositories to lock the rows a transaction reads until it
// commits. Only meaningful inside WithinTransaction.
func WithRowLock(ctx context.Context) context.Context {
	return context.WithValue(ctx, rowLockKey{}, true)
}

func RowLockRequested(ctx context.Context) bool {
	v, _ := ctx.Value(rowLockKey{}).(bool)
	return v
}

// WithSnapshot makes the next WithinTransaction a read-only transaction over
// one consistent view of the data.
func WithSnapshot(ctx context.Context) context.Context {
	return context.WithValue(ctx, snapshotKey{}, true)
}

func SnapshotRequested(ctx context.Context) bool {
	v, _ := ctx.Value(snapshotKey{}).(bool)
	return v
}
