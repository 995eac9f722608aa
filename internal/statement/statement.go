// Package statement synthesizes parameterized SQL for the CRUD, upsert,
// pagination and null-patch operations of one entity in one dialect.
//
// Synthesis is pure and synchronous. Every operation returns a Result; a
// failure is reported through Result.Err and never as a panic. Statements use
// lowercase keywords, dialect-quoted identifiers and "?" placeholders, which
// the executor rebinds for dialects with positional placeholders.
package statement

import (
	"fmt"
	"strings"

	"github.com/coregx/sqlassist/internal/assist"
	"github.com/coregx/sqlassist/internal/dialects"
	"github.com/coregx/sqlassist/internal/logger"
	"github.com/coregx/sqlassist/internal/meta"
	"github.com/coregx/sqlassist/internal/security"
)

// Statement synthesizes the statements of one entity for one dialect. It is
// immutable and safe for concurrent use.
type Statement struct {
	md        *meta.EntityMetadata
	dialect   dialects.Dialect
	logger    logger.Logger
	validator *security.Validator
	registry  *meta.Registry

	table   string
	pk      string
	columns string
}

// Option configures a Statement.
type Option func(*Statement)

// WithLogger sets the logger receiving one Debug record per synthesis.
func WithLogger(l logger.Logger) Option {
	return func(s *Statement) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithValidator validates every raw fragment of a condition set before it is
// rendered. A strict validator also screens the bound string values of the
// set. A rejection fails the synthesis.
func WithValidator(v *security.Validator) Option {
	return func(s *Statement) {
		s.validator = v
	}
}

// WithRegistry sets the registry used to resolve entity shapes. The default is
// meta.Default().
func WithRegistry(r *meta.Registry) Option {
	return func(s *Statement) {
		if r != nil {
			s.registry = r
		}
	}
}

// New creates the statement synthesizer of entity, which is either a
// *meta.EntityMetadata or anything meta.Registry.Of accepts. The only errors
// are *meta.MetadataError values.
func New(d dialects.Dialect, entity any, opts ...Option) (*Statement, error) {
	s := &Statement{
		dialect:  d,
		logger:   &logger.NoopLogger{},
		registry: meta.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	md, ok := entity.(*meta.EntityMetadata)
	if !ok {
		var err error
		if md, err = s.registry.Of(entity); err != nil {
			return nil, err
		}
	}
	s.md = md
	s.table = d.QuoteIdentifier(md.Table())
	s.pk = d.QuoteIdentifier(md.PrimaryKey())
	s.columns = s.resultColumns()
	return s, nil
}

// Must is like New but panics on a metadata error.
func Must(d dialects.Dialect, entity any, opts ...Option) *Statement {
	s, err := New(d, entity, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Metadata returns the entity metadata.
func (s *Statement) Metadata() *meta.EntityMetadata { return s.md }

// Dialect returns the dialect statements are written for.
func (s *Statement) Dialect() dialects.Dialect { return s.dialect }

// ResultColumns returns the quoted, aliased column list of selects.
func (s *Statement) ResultColumns() string { return s.columns }

func (s *Statement) resultColumns() string {
	fields := s.md.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = s.dialect.QuoteIdentifier(f.Column)
		if f.Alias != "" {
			cols[i] += " as " + s.dialect.QuoteAlias(f.Alias)
		}
	}
	return strings.Join(cols, ", ")
}

func (s *Statement) quoteAll(columns []string) []string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = s.dialect.QuoteIdentifier(c)
	}
	return quoted
}

// values reads the field values of obj, optionally keeping non-null ones only
// and optionally leaving the primary key out.
func (s *Statement) values(obj any, nonNull, withPK bool) ([]meta.FieldValue, error) {
	all, err := s.md.Values(obj)
	if err != nil {
		return nil, wrapBuild(err)
	}
	out := make([]meta.FieldValue, 0, len(all))
	for _, v := range all {
		if nonNull && v.IsNull() {
			continue
		}
		if !withPK && v.IsPrimaryKey() {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// primaryKeyValue reads the primary key of obj, failing when it is null.
func (s *Statement) primaryKeyValue(obj any) (any, error) {
	all, err := s.md.Values(obj)
	if err != nil {
		return nil, wrapBuild(err)
	}
	for _, v := range all {
		if v.IsPrimaryKey() {
			if v.IsNull() {
				return nil, buildError("primary key %s has no value", s.md.PrimaryKey())
			}
			return v.Value, nil
		}
	}
	return nil, buildError("primary key %s has no value", s.md.PrimaryKey())
}

func (s *Statement) validate(set *assist.ConditionSet) error {
	if s.validator == nil || set == nil {
		return nil
	}
	if err := s.validator.ValidateFragments(set.Fragments()); err != nil {
		return wrapBuild(err)
	}
	if !s.validator.Strict() {
		return nil
	}
	for _, c := range set.Conditions() {
		if err := s.validator.ValidateParams(c.Params()); err != nil {
			return wrapBuild(err)
		}
	}
	_, joinParams := set.JoinFragment()
	_, havingParams := set.HavingExpr()
	if err := s.validator.ValidateParams(joinParams); err != nil {
		return wrapBuild(err)
	}
	if err := s.validator.ValidateParams(havingParams); err != nil {
		return wrapBuild(err)
	}
	return nil
}

func (s *Statement) ok(op string, kind Kind, sql string, params []any) Result {
	r := success(op, s.md.Table(), kind, sql, params)
	s.logger.Debug("statement synthesized",
		"op", op,
		"dialect", s.dialect.Name(),
		"table", s.md.Table(),
		"kind", kind.String(),
		"sql", sql,
		"param_count", len(params),
	)
	return r
}

func (s *Statement) fail(op string, err error) Result {
	r := failure(op, s.md.Table(), err)
	s.logger.Debug("statement synthesis failed",
		"op", op,
		"dialect", s.dialect.Name(),
		"table", s.md.Table(),
		"error", r.err,
	)
	return r
}

func (s *Statement) String() string {
	return fmt.Sprintf("Statement(%s, %s)", s.dialect.Name(), s.md.Table())
}
