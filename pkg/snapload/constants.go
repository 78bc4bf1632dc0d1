package snapload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // All discovered files were ingested
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to the warehouse
	ExitSourceError     = 12 // Source directory or snapshot file unreadable
	ExitIngestionFailed = 13 // A file failed to ingest; remaining files were skipped
)

// Defaults for the warehouse target. A run without flags, environment or
// snapload.yaml loads into this database.
const (
	DefaultEngine   = EnginePostgreSQL
	DefaultHost     = "localhost"
	DefaultPort     = 15432
	DefaultDatabase = "nyc_warehouse"
	DefaultUsername = "admin"
	DefaultPassword = "admin"
	DefaultSSLMode  = "prefer"

	// DefaultSQLServerPort is used instead of DefaultPort for the sqlserver engine.
	DefaultSQLServerPort = 1433

	// DefaultSQLiteFile is the database file used by the sqlite engine when
	// no database is given.
	DefaultSQLiteFile = DefaultDatabase + ".db"
)

// Defaults for the load itself.
const (
	DefaultTable     = "nyc_raw"
	DefaultSourceDir = "data/raw"
	DefaultExtension = ".parquet"

	// DefaultBatchSize is the number of rows staged per insert statement or COPY.
	DefaultBatchSize = 10000

	DefaultInsertMethod = InsertMethodCopy
)

// DefaultPortFor returns the default port of engine.
func DefaultPortFor(engine string) int {
	if CanonicalEngine(engine) == EngineSQLServer {
		return DefaultSQLServerPort
	}
	return DefaultPort
}

// Engine names accepted by the warehouse registry.
const (
	EnginePostgreSQL = "postgresql"
	EngineSQLite     = "sqlite"
	EngineSQLServer  = "sqlserver"
)

// Insert methods for the PostgreSQL engine.
const (
	InsertMethodCopy   = "copy"
	InsertMethodValues = "values"
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 5 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of connection retry attempts.
	DefaultRetryMaxAttempts = 3
)

// CanonicalEngine maps accepted engine aliases to their registry name.
// Unknown names are returned lower-cased so the registry can reject them.
func CanonicalEngine(name string) string {
	switch n := lower(name); n {
	case "", "postgres", "postgresql", "pg":
		return EnginePostgreSQL
	case "sqlite", "sqlite3":
		return EngineSQLite
	case "sqlserver", "mssql":
		return EngineSQLServer
	default:
		return n
	}
}
