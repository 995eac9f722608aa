package core

import (
	"context"
	"fmt"

	"github.com/coregx/sqlassist/internal/assist"
	"github.com/coregx/sqlassist/internal/statement"
)

// Page is one page of a paginated select.
type Page struct {
	Data      []Record `json:"data"`
	TotalRows int64    `json:"totalRows"`
	Page      int      `json:"page"`
	RowSize   int      `json:"rowSize"`
	Pages     int      `json:"pages"`
}

// Command runs the operations of one entity: it synthesizes each statement
// and hands the result to an executor.
type Command struct {
	stmt *statement.Statement
	exec Executor
}

// NewCommand creates a command over stmt and exec.
func NewCommand(stmt *statement.Statement, exec Executor) *Command {
	return &Command{stmt: stmt, exec: exec}
}

// Statement returns the synthesizer of the command.
func (c *Command) Statement() *statement.Statement { return c.stmt }

func (c *Command) rows(ctx context.Context, r statement.Result) ([]Record, error) {
	out, err := c.exec.Execute(ctx, r)
	if err != nil {
		return nil, err
	}
	if out.Rows == nil {
		return []Record{}, nil
	}
	return out.Rows, nil
}

func (c *Command) single(ctx context.Context, r statement.Result) (Record, error) {
	rows, err := c.rows(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}

func (c *Command) affected(ctx context.Context, r statement.Result) (int64, error) {
	out, err := c.exec.Execute(ctx, r)
	return out.RowsAffected, err
}

func (c *Command) generated(ctx context.Context, r statement.Result) (any, error) {
	out, err := c.exec.Execute(ctx, r)
	return out.GeneratedID, err
}

// Count returns the number of rows matching set. With a group by it returns
// the number of groups, one count row per group.
func (c *Command) Count(ctx context.Context, set *assist.ConditionSet) (int64, error) {
	rows, err := c.rows(ctx, c.stmt.Count(set))
	if err != nil {
		return 0, err
	}
	if set != nil && set.GroupByExpr() != "" {
		return int64(len(rows)), nil
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(firstValue(rows[0]))
}

// Exists reports whether any row matches set.
func (c *Command) Exists(ctx context.Context, set *assist.ConditionSet) (bool, error) {
	rows, err := c.rows(ctx, c.stmt.Exists(set))
	return len(rows) > 0, err
}

// SelectAll returns the rows matching set, every row when set is nil.
func (c *Command) SelectAll(ctx context.Context, set *assist.ConditionSet) ([]Record, error) {
	return c.rows(ctx, c.stmt.SelectAll(set))
}

// LimitAll returns the requested page of the rows matching set. set itself is
// not modified: pagination is normalized on a copy. No select is issued when
// nothing matches or the page is past the last one.
func (c *Command) LimitAll(ctx context.Context, set *assist.ConditionSet) (Page, error) {
	paged := assist.New()
	if set != nil {
		paged = set.Clone()
	}
	paged.Paginate()

	total, err := c.Count(ctx, paged)
	if err != nil {
		return Page{}, fmt.Errorf("limitAll: %w", err)
	}
	page := Page{
		Data:      []Record{},
		TotalRows: total,
		Page:      paged.PageNumber(),
		RowSize:   paged.RowCount(),
	}
	if total == 0 {
		return page, nil
	}

	rowSize := int64(page.RowSize)
	page.Pages = int((total + rowSize - 1) / rowSize)
	if page.Page > page.Pages {
		return page, nil
	}

	data, err := c.SelectAll(ctx, paged)
	if err != nil {
		return Page{}, fmt.Errorf("limitAll: %w", err)
	}
	page.Data = data
	return page, nil
}

// SelectByID returns the row whose primary key is id, or ErrNoRows.
func (c *Command) SelectByID(ctx context.Context, id any) (Record, error) {
	return c.single(ctx, c.stmt.SelectByID(id, "", ""))
}

// SelectSingleByObject returns the first row equal to the non-null fields of
// obj, or ErrNoRows.
func (c *Command) SelectSingleByObject(ctx context.Context, obj any) (Record, error) {
	return c.single(ctx, c.stmt.SelectSingleByObject(obj, "", ""))
}

// SelectByObject returns the rows equal to the non-null fields of obj.
func (c *Command) SelectByObject(ctx context.Context, obj any) ([]Record, error) {
	return c.rows(ctx, c.stmt.SelectByObject(obj, "", "", false))
}

// InsertAll inserts every field of obj and returns the affected-row count.
func (c *Command) InsertAll(ctx context.Context, obj any) (int64, error) {
	return c.affected(ctx, c.stmt.InsertAll(obj))
}

// InsertNonEmpty inserts the non-null fields of obj.
func (c *Command) InsertNonEmpty(ctx context.Context, obj any) (int64, error) {
	return c.affected(ctx, c.stmt.InsertNonEmpty(obj))
}

// InsertAllReturnID inserts every field of obj and returns the generated key.
func (c *Command) InsertAllReturnID(ctx context.Context, obj any) (any, error) {
	return c.generated(ctx, c.stmt.InsertAllReturnID(obj))
}

// InsertNonEmptyReturnID inserts the non-null fields of obj and returns the
// generated key.
func (c *Command) InsertNonEmptyReturnID(ctx context.Context, obj any) (any, error) {
	return c.generated(ctx, c.stmt.InsertNonEmptyReturnID(obj))
}

// UpsertAll upserts every field of obj on conflict (the primary key when
// empty).
func (c *Command) UpsertAll(ctx context.Context, obj any, conflict string) (int64, error) {
	return c.affected(ctx, c.stmt.UpsertAll(obj, conflict))
}

// UpsertNonEmpty upserts the non-null fields of obj.
func (c *Command) UpsertNonEmpty(ctx context.Context, obj any, conflict string) (int64, error) {
	return c.affected(ctx, c.stmt.UpsertNonEmpty(obj, conflict))
}

// UpsertAllReturnID upserts every field of obj and returns the key.
func (c *Command) UpsertAllReturnID(ctx context.Context, obj any, conflict string) (any, error) {
	return c.generated(ctx, c.stmt.UpsertAllReturnID(obj, conflict))
}

// UpsertNonEmptyReturnID upserts the non-null fields of obj and returns the key.
func (c *Command) UpsertNonEmptyReturnID(ctx context.Context, obj any, conflict string) (any, error) {
	return c.generated(ctx, c.stmt.UpsertNonEmptyReturnID(obj, conflict))
}

// Replace replaces the row conflicting with obj.
func (c *Command) Replace(ctx context.Context, obj any) (int64, error) {
	return c.affected(ctx, c.stmt.Replace(obj))
}

// UpdateAllByID sets every non-key field of obj by primary key.
func (c *Command) UpdateAllByID(ctx context.Context, obj any) (int64, error) {
	return c.affected(ctx, c.stmt.UpdateAllByID(obj))
}

// UpdateAllByAssist sets every field of obj on the rows matching set.
func (c *Command) UpdateAllByAssist(ctx context.Context, obj any, set *assist.ConditionSet) (int64, error) {
	return c.affected(ctx, c.stmt.UpdateAllByAssist(obj, set))
}

// UpdateNonEmptyByID sets the non-null non-key fields of obj by primary key.
func (c *Command) UpdateNonEmptyByID(ctx context.Context, obj any) (int64, error) {
	return c.affected(ctx, c.stmt.UpdateNonEmptyByID(obj))
}

// UpdateNonEmptyByAssist sets the non-null fields of obj on the rows matching set.
func (c *Command) UpdateNonEmptyByAssist(ctx context.Context, obj any, set *assist.ConditionSet) (int64, error) {
	return c.affected(ctx, c.stmt.UpdateNonEmptyByAssist(obj, set))
}

// UpdateSetNullByID sets columns to null on the row whose primary key is id.
func (c *Command) UpdateSetNullByID(ctx context.Context, id any, columns ...string) (int64, error) {
	return c.affected(ctx, c.stmt.UpdateSetNullByID(id, columns...))
}

// UpdateSetNullByAssist sets columns to null on the rows matching set.
func (c *Command) UpdateSetNullByAssist(ctx context.Context, set *assist.ConditionSet, columns ...string) (int64, error) {
	return c.affected(ctx, c.stmt.UpdateSetNullByAssist(set, columns...))
}

// DeleteByID deletes the row whose primary key is id.
func (c *Command) DeleteByID(ctx context.Context, id any) (int64, error) {
	return c.affected(ctx, c.stmt.DeleteByID(id))
}

// DeleteByAssist deletes the rows matching set.
func (c *Command) DeleteByAssist(ctx context.Context, set *assist.ConditionSet) (int64, error) {
	return c.affected(ctx, c.stmt.DeleteByAssist(set))
}

// InsertBatch inserts every field of each object and returns the total
// affected-row count.
func (c *Command) InsertBatch(ctx context.Context, objs ...any) (int64, error) {
	return c.affected(ctx, c.stmt.InsertBatch(objs...))
}

// InsertBatchColumns inserts rows of values bound to columns.
func (c *Command) InsertBatchColumns(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	return c.affected(ctx, c.stmt.InsertBatchColumns(columns, rows))
}
