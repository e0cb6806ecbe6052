package core

import "context"

// Transactor scopes a unit of work. Repositories called with the ctx handed to fn join the transaction.
type Transactor interface {
	// InTx runs fn inside a transaction; it commits when fn returns nil and rolls back on error or panic.
	// Nested calls join the outer transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
