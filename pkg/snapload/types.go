package snapload

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ColumnType is the logical type of a dataset column, inferred from the
// snapshot file schema. Warehouse backends map it to their own DDL types.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeBoolean
	TypeInteger
	TypeFloat
	TypeTimestamp
	TypeTimestampTZ
	TypeDate
	TypeBinary
)

// String returns a human-readable representation of the ColumnType.
func (t ColumnType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeTimestamp:
		return "timestamp"
	case TypeTimestampTZ:
		return "timestamptz"
	case TypeDate:
		return "date"
	case TypeBinary:
		return "binary"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Column describes one dataset column.
type Column struct {
	Name string
	Type ColumnType
}

// Dataset is an in-memory tabular snapshot loaded wholesale from one file.
// Rows are positional: len(row) == len(Columns), nil is SQL NULL.
type Dataset struct {
	Source  string
	Columns []Column
	Rows    [][]any

	// Checksum is the SHA-256 of the source file bytes, hex encoded.
	Checksum string
}

// NumRows returns the number of rows held by the dataset.
func (d *Dataset) NumRows() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// ColumnNames returns the column labels in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Release drops the row storage so it can be reclaimed once the caller's
// scope ends. Safe to call more than once.
func (d *Dataset) Release() {
	if d == nil {
		return
	}
	d.Rows = nil
}

// Batch is a contiguous row range [Start, End) of a dataset.
type Batch struct {
	Index int
	Start int
	End   int
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int { return b.End - b.Start }

// Batches splits total rows into consecutive non-overlapping batches of at
// most size rows, covering [0, total) in order. The last batch may be shorter.
// A non-positive size falls back to DefaultBatchSize.
func Batches(total, size int) []Batch {
	if total <= 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([]Batch, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		out = append(out, Batch{Index: len(out), Start: start, End: end})
	}
	return out
}

// ConnectionConfig represents resolved warehouse connection parameters.
type ConnectionConfig struct {
	// Engine selects the warehouse backend (postgresql, sqlite, sqlserver).
	Engine string

	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string
}

// DefaultConnectionConfig returns the built-in warehouse target.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Engine:           DefaultEngine,
		Host:             DefaultHost,
		Port:             DefaultPort,
		Database:         DefaultDatabase,
		Username:         DefaultUsername,
		Password:         DefaultPassword,
		SSLMode:          DefaultSSLMode,
		AuthMethod:       AuthMethodStandard,
		AppName:          "snapload",
		AdditionalParams: make(map[string]string),
	}
}

// Target returns a password-free description of the connection target.
func (c *ConnectionConfig) Target() string {
	if CanonicalEngine(c.Engine) == EngineSQLite {
		return c.Database
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Database)
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// LoadConfig contains all parameters of a load run apart from the connection.
type LoadConfig struct {
	// SourceDir is the directory scanned for snapshot files (not recursive).
	SourceDir string

	// Extension is matched case-insensitively against file names.
	Extension string

	// Table is the target table, optionally schema-qualified.
	Table string

	// BatchSize bounds the number of rows per insert.
	BatchSize int

	// CreateTable creates the target table from the first dataset's layout when missing.
	CreateTable bool

	// InsertMethod selects COPY or multi-row VALUES on PostgreSQL.
	InsertMethod string

	// Timeout is the catastrophic failure guard for the whole run (0 = none).
	Timeout time.Duration
}

// DefaultLoadConfig returns the built-in load settings.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		SourceDir:    DefaultSourceDir,
		Extension:    DefaultExtension,
		Table:        DefaultTable,
		BatchSize:    DefaultBatchSize,
		CreateTable:  true,
		InsertMethod: DefaultInsertMethod,
	}
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.SourceDir) == "" {
		errs = append(errs, fmt.Errorf("SourceDir is required: %w", ErrInvalidConfig))
	}
	if strings.TrimSpace(c.Table) == "" {
		errs = append(errs, fmt.Errorf("Table is required: %w", ErrInvalidConfig))
	}
	if strings.TrimSpace(c.Extension) == "" {
		errs = append(errs, fmt.Errorf("Extension is required: %w", ErrInvalidConfig))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("BatchSize must be positive, got %d: %w", c.BatchSize, ErrInvalidConfig))
	}
	switch c.InsertMethod {
	case InsertMethodCopy, InsertMethodValues:
	default:
		errs = append(errs, fmt.Errorf("InsertMethod must be %q or %q, got %q: %w",
			InsertMethodCopy, InsertMethodValues, c.InsertMethod, ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// IngestResult is the typed outcome of ingesting one dataset.
type IngestResult struct {
	Success bool
	Kind    ErrorKind

	// RowsTotal is the dataset size.
	RowsTotal int

	// RowsInserted counts committed rows; zero whenever Success is false.
	RowsInserted int

	// Batches counts batches staged before commit or failure.
	Batches int

	// Err wraps the kind's sentinel and the driver error.
	Err error
}

// FileResult records the outcome for one discovered file.
type FileResult struct {
	Path     string
	Checksum string
	Rows     int
	Result   IngestResult
}

// RunSummary describes one pass of the driver loop.
type RunSummary struct {
	RunID    uuid.UUID
	Files    []FileResult
	Skipped  []string
	Duration time.Duration
}

// NewRunSummary creates an empty summary with a fresh run identifier.
func NewRunSummary() *RunSummary {
	return &RunSummary{RunID: uuid.New()}
}

// Failed returns the file whose ingestion stopped the run, or nil.
func (s *RunSummary) Failed() *FileResult {
	for i := range s.Files {
		if !s.Files[i].Result.Success {
			return &s.Files[i]
		}
	}
	return nil
}

// TotalRows returns the number of rows committed across all files.
func (s *RunSummary) TotalRows() int {
	n := 0
	for _, f := range s.Files {
		n += f.Result.RowsInserted
	}
	return n
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
