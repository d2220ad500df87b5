// Package database provides SQLite connection management for VentLogic Core.
//
// This package manages:
//   - Opening the SQLite database with WAL mode and busy timeout pragmas
//   - Embedded schema migrations (applied at startup, each in its own
//     transaction)
//   - Health checks for the liveness endpoint
//
// SQLite is the only persistence backend: a single-process engine with a
// small amount of durable state (operator intent, last-seen targets) does
// not warrant a database server.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/ventlogic.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
