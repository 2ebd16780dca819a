// Package sqlite provides a unified SQLite-based implementation of the
// persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. A single Store owns the
// database connection and hands out the individual store interfaces through
// wrapper types. The same wrappers back both pool-scoped access and
// transaction-scoped access inside UnitOfWork.Execute.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.quarry/data/quarry.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode; job claims rely on SQLite's serialised
// writer to stay exclusive under concurrency.
package sqlite
