package driven

import "context"

// Stores bundles every persistence port behind one handle. Services receive
// a Stores either backed by the connection pool, where each call is its own
// implicit transaction, or scoped to an explicit transaction inside
// UnitOfWork.Execute.
type Stores interface {
	Jobs() JobStore
	Files() FileStore
	Documents() DocumentStore
	Findings() FindingStore
	Exposures() ExposureStore
	Access() AccessStore
	Policies() PolicyStore
	Diffs() DiffStore
	Interactions() InteractionStore
}

// UnitOfWork runs a function against a transaction-scoped Stores. The
// transaction commits when fn returns nil and rolls back when it returns an
// error, so a pipeline stage's writes and its job's terminal transition land
// atomically or not at all.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(tx Stores) error) error
}
