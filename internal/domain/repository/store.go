package repository

import "context"

// Store groups the repositories behind one transaction boundary.
//
// Inside InTx, reads through the given Store lock the loaded records until
// fn returns, so read-decide-write sequences on the same user or poll are
// serialized. fn returning an error rolls everything back.
type Store interface {
	Users() UserRepository
	Polls() PollRepository
	InTx(ctx context.Context, fn func(tx Store) error) error
}
