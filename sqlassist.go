// Package sqlassist synthesizes dialect-aware, parameterized SQL for the CRUD,
// upsert, pagination and null-patch operations of an entity, and executes the
// synthesized statements through database/sql.
//
// The synthesizer is pure: a Statement turns an entity and a ConditionSet into
// a Result carrying SQL text and parameters without touching a database. A
// Command pairs a Statement with a DB and runs each operation.
package sqlassist

import (
	"github.com/coregx/sqlassist/internal/analyzer"
	"github.com/coregx/sqlassist/internal/assist"
	"github.com/coregx/sqlassist/internal/config"
	"github.com/coregx/sqlassist/internal/core"
	"github.com/coregx/sqlassist/internal/dialects"
	"github.com/coregx/sqlassist/internal/meta"
	"github.com/coregx/sqlassist/internal/statement"
)

type (
	// EntityMetadata is the table shape of one entity.
	EntityMetadata = meta.EntityMetadata
	// Registry caches entity metadata per shape.
	Registry = meta.Registry
	// Declaration describes an entity without struct tags.
	Declaration = meta.Declaration
	// FieldMapping maps one entity field to one column.
	FieldMapping = meta.FieldMapping
	// TableModel is implemented by entities that name their table.
	TableModel = meta.TableModel
	// Role distinguishes the primary key from plain columns.
	Role = meta.Role

	// ConditionSet is the where/group/having/order/limit intent of a statement.
	ConditionSet = assist.ConditionSet
	// WhereCondition is one predicate fragment and its values.
	WhereCondition = assist.WhereCondition

	// Dialect renders identifiers and dialect-specific clauses.
	Dialect = dialects.Dialect

	// Statement synthesizes the statements of one entity for one dialect.
	Statement = statement.Statement
	// StatementOption configures a Statement.
	StatementOption = statement.Option
	// Result is the outcome of one synthesis call.
	Result = statement.Result
	// Kind tells the executor how to run a Result.
	Kind = statement.Kind

	// DB executes synthesized statements.
	DB = core.DB
	// Option configures a DB.
	Option = core.Option
	// Command runs every operation of one Statement against an Executor.
	Command = core.Command
	// Executor runs one Result.
	Executor = core.Executor
	// Outcome is what executing a Result produced.
	Outcome = core.Outcome
	// Record is one result row keyed by column label.
	Record = core.Record
	// Page is one page of a limitAll call.
	Page = core.Page

	// Plan is the execution plan of a statement.
	Plan = analyzer.Plan

	// Config is the YAML configuration of a DB.
	Config = config.Config
)

// Roles of a field.
const (
	RoleColumn     = meta.RoleColumn
	RolePrimaryKey = meta.RolePrimaryKey
)

// Result kinds.
const (
	KindQuery           = statement.KindQuery
	KindExec            = statement.KindExec
	KindInsertReturning = statement.KindInsertReturning
	KindInsertLastID    = statement.KindInsertLastID
	KindBatch           = statement.KindBatch
)

// Errors.
var (
	ErrNoTable              = meta.ErrNoTable
	ErrNoPrimaryKey         = meta.ErrNoPrimaryKey
	ErrNoColumns            = meta.ErrNoColumns
	ErrInvalidShape         = meta.ErrInvalidShape
	ErrIntrospection        = meta.ErrIntrospection
	ErrStatementBuild       = statement.ErrStatementBuild
	ErrUnsupportedOperation = statement.ErrUnsupportedOperation
	ErrNoRows               = core.ErrNoRows
	ErrStatementFailed      = core.ErrStatementFailed
	ErrUnsupportedDialect   = core.ErrUnsupportedDialect
	ErrUnexpectedResult     = core.ErrUnexpectedResult
)

// Re-exported constructors and options.
var (
	NewRegistry     = meta.NewRegistry
	DefaultRegistry = meta.Default
	IsMetadataError = meta.IsMetadataError

	NewConditionSet = assist.New

	GetDialect = dialects.GetDialect
	Rebind     = dialects.Rebind

	NewStatement  = statement.New
	MustStatement = statement.Must
	WithLogger    = statement.WithLogger
	WithValidator = statement.WithValidator
	WithRegistry  = statement.WithRegistry
	IsUnsupported = statement.IsUnsupported

	Open                  = core.Open
	WrapDB                = core.WrapDB
	NewCommand            = core.NewCommand
	WithMaxOpenConns      = core.WithMaxOpenConns
	WithMaxIdleConns      = core.WithMaxIdleConns
	WithConnMaxLifetime   = core.WithConnMaxLifetime
	WithStmtCacheCapacity = core.WithStmtCacheCapacity
	WithoutStmtCache      = core.WithoutStmtCache
	WithDBLogger          = core.WithLogger
	WithSensitiveFields   = core.WithSensitiveFields
	WithTracer            = core.WithTracer
	WithHealthCheck       = core.WithHealthCheck
	WithIDGenerator       = core.WithIDGenerator

	LoadConfig  = config.Load
	ParseConfig = config.Parse
)
