package statement

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/sqlassist/internal/assist"
	"github.com/coregx/sqlassist/internal/dialects"
	"github.com/coregx/sqlassist/internal/logger"
	"github.com/coregx/sqlassist/internal/meta"
	"github.com/coregx/sqlassist/internal/security"
)

type user struct {
	ID   *int64  `db:"id,pk"`
	Name *string `db:"name"`
	Pwd  *string `db:"pwd,alias=password"`
}

func (user) TableName() string { return "user" }

func str(s string) *string { return &s }
func i64(i int64) *int64   { return &i }

var (
	mysql    = dialects.GetDialect("mysql")
	postgres = dialects.GetDialect("postgres")
	sqlite   = dialects.GetDialect("sqlite")
)

func newUserStatement(t *testing.T, d dialects.Dialect, opts ...Option) *Statement {
	t.Helper()
	s, err := New(d, user{}, append([]Option{WithRegistry(meta.NewRegistry())}, opts...)...)
	require.NoError(t, err)
	return s
}

func TestStatement_UserScenario(t *testing.T) {
	s := newUserStatement(t, mysql)

	r := s.DeleteByID(7)
	require.True(t, r.Succeeded())
	assert.Equal(t, "delete from `user` where `id` = ?", r.SQL())
	assert.Equal(t, []any{7}, r.Params())
	assert.Equal(t, KindExec, r.Kind())

	r = s.InsertNonEmpty(map[string]any{"name": "a"})
	require.True(t, r.Succeeded())
	assert.Equal(t, "insert into `user` (`name`) values (?)", r.SQL())
	assert.Equal(t, []any{"a"}, r.Params())

	r = s.UpdateNonEmptyByID(user{ID: i64(5), Name: str("b")})
	require.True(t, r.Succeeded())
	assert.Equal(t, "update `user` set `name` = ? where `id` = ?", r.SQL())
	assert.Equal(t, []any{"b", int64(5)}, r.Params())
}

func TestNew_MetadataError(t *testing.T) {
	type broken struct {
		Name string `db:"name"`
	}
	_, err := New(mysql, broken{}, WithRegistry(meta.NewRegistry()))
	require.Error(t, err)
	assert.True(t, meta.IsMetadataError(err))

	assert.Panics(t, func() { Must(mysql, broken{}, WithRegistry(meta.NewRegistry())) })
}

func TestNew_FromMetadata(t *testing.T) {
	md, err := meta.NewRegistry().Declare("account", meta.Declaration{
		Table: "account",
		Fields: []meta.FieldMapping{
			{Field: "id", Column: "id", Role: meta.RolePrimaryKey},
			{Field: "email", Column: "email"},
		},
	})
	require.NoError(t, err)

	s := Must(postgres, md)
	assert.Same(t, md, s.Metadata())
	assert.Equal(t, `"id", "email"`, s.ResultColumns())

	r := s.InsertAll(map[string]any{"id": 1, "email": "a@b.c"})
	require.True(t, r.Succeeded())
	assert.Equal(t, `insert into "account" ("id", "email") values (?, ?)`, r.SQL())
}

func TestSelectAll_Idempotent(t *testing.T) {
	reg := meta.NewRegistry()
	first := Must(mysql, user{}, WithRegistry(reg)).SelectAll(nil)
	second := Must(mysql, &user{}, WithRegistry(reg)).SelectAll(nil)
	assert.Equal(t, first.SQL(), second.SQL())
	assert.Equal(t, "select `id`, `name`, `pwd` as `password` from `user`", first.SQL())
}

func TestSelectAll_ConditionedParamOrder(t *testing.T) {
	s := newUserStatement(t, mysql)
	set := assist.New().
		Join("inner join role r on r.user_id = `user`.id and r.kind = ?", "admin").
		AndEq("name", "a").
		OrIn("id", 1, 2).
		Condition(assist.WhereCondition{Require: "and (age = ? or age in (?, ?))", Value: 30, HasValue: true, Values: []any{40, 50}}).
		GroupBy("name").
		Having("count(*) > ?", 1).
		OrderBy("name", true).
		Distinct().
		ResultColumns("name, count(*)").
		Page(3).RowSize(10).Paginate()

	r := s.SelectAll(set)
	require.True(t, r.Succeeded())
	assert.Equal(t,
		"select distinct name, count(*) from `user` inner join role r on r.user_id = `user`.id and r.kind = ? "+
			"where name = ? or id in (?, ?) and (age = ? or age in (?, ?)) group by name having count(*) > ? "+
			"order by name asc limit ? offset ?",
		r.SQL())
	assert.Equal(t, []any{"admin", "a", 1, 2, 30, 40, 50, 1, 10, 20}, r.Params())
	assert.Equal(t, strings.Count(r.SQL(), "?"), len(r.Params()))
}

func TestSelectAll_LimitWithoutOffset(t *testing.T) {
	s := newUserStatement(t, postgres)

	r := s.SelectAll(assist.New().RowSize(5))
	assert.Equal(t, `select "id", "name", "pwd" as "password" from "user" limit ?`, r.SQL())
	assert.Equal(t, []any{5}, r.Params())

	r = s.SelectAll(assist.New().StartRow(10))
	assert.Equal(t, `select "id", "name", "pwd" as "password" from "user"`, r.SQL())
	assert.Empty(t, r.Params())
}

func TestWhereParamCount(t *testing.T) {
	s := newUserStatement(t, mysql)
	set := assist.New().
		AndEq("a", 1).
		AndIn("b", 2, 3, 4).
		OrIsNull("c").
		AndBetween("d", 5, 6).
		AndIn("e").
		OrLike("f", "%x%")

	r := s.Count(set)
	require.True(t, r.Succeeded())
	assert.Equal(t, "select count(*) from `user` where a = ? and b in (?, ?, ?) or c is null and d between ? and ? and 1 = 0 or f like ?", r.SQL())
	assert.Equal(t, []any{1, 2, 3, 4, 5, 6, "%x%"}, r.Params())
}

func TestCountAndExists(t *testing.T) {
	s := newUserStatement(t, mysql)

	assert.Equal(t, "select count(*) from `user`", s.Count(nil).SQL())

	set := assist.New().AndGt("age", 18).GroupBy("name").RowSize(10)
	r := s.Count(set)
	assert.Equal(t, "select count(*) from `user` where age > ? group by name", r.SQL(), "count ignores pagination")
	assert.Equal(t, []any{18}, r.Params())

	r = s.Exists(assist.New().AndEq("name", "a"))
	assert.Equal(t, "select 1 from `user` where name = ? limit 1", r.SQL())
	assert.Equal(t, []any{"a"}, r.Params())
}

func TestSelectByID(t *testing.T) {
	s := newUserStatement(t, postgres)

	r := s.SelectByID(7, "", "")
	assert.Equal(t, `select "id", "name", "pwd" as "password" from "user" where "id" = ?`, r.SQL())
	assert.Equal(t, []any{7}, r.Params())

	r = s.SelectByID(7, `"name"`, `u left join role r on r.uid = u.id`)
	assert.Equal(t, `select "name" from "user" u left join role r on r.uid = u.id where "id" = ?`, r.SQL())

	r = s.SelectByID(nil, "", "")
	assert.False(t, r.Succeeded())
	assert.ErrorIs(t, r.Err(), ErrStatementBuild)
}

func TestSelectByObject_ReverseOrder(t *testing.T) {
	s := newUserStatement(t, mysql)

	r := s.SelectByObject(user{ID: i64(1), Name: str("a"), Pwd: str("p")}, "", "", false)
	assert.Equal(t, "select `id`, `name`, `pwd` as `password` from `user` where `pwd` = ? and `name` = ? and `id` = ?", r.SQL())
	assert.Equal(t, []any{"p", "a", int64(1)}, r.Params())

	r = s.SelectSingleByObject(user{Name: str("a")}, "`id`", "")
	assert.Equal(t, "select `id` from `user` where `name` = ? limit 1", r.SQL())
	assert.Equal(t, "selectSingleByObj", r.Op())

	r = s.SelectByObject(user{}, "", "", false)
	assert.Equal(t, "select `id`, `name`, `pwd` as `password` from `user`", r.SQL())

	r = s.SelectByObject("not a user", "", "", true)
	assert.False(t, r.Succeeded())
	assert.ErrorIs(t, r.Err(), ErrStatementBuild)
	assert.ErrorIs(t, r.Err(), meta.ErrIntrospection)
}

func TestInsertNonEmpty_AllSubsets(t *testing.T) {
	s := newUserStatement(t, mysql)

	for mask := 0; mask < 8; mask++ {
		u := user{}
		var want []any
		var cols []string
		if mask&1 != 0 {
			u.ID = i64(9)
			want, cols = append(want, int64(9)), append(cols, "`id`")
		}
		if mask&2 != 0 {
			u.Name = str("n")
			want, cols = append(want, "n"), append(cols, "`name`")
		}
		if mask&4 != 0 {
			u.Pwd = str("p")
			want, cols = append(want, "p"), append(cols, "`pwd`")
		}

		r := s.InsertNonEmpty(u)
		require.True(t, r.Succeeded())
		assert.Equal(t, "insert into `user` ("+strings.Join(cols, ", ")+") values ("+placeholders(len(cols))+")", r.SQL())
		assert.Equal(t, len(cols), strings.Count(r.SQL(), "?"))
		if want == nil {
			want = []any{}
		}
		assert.Equal(t, want, r.Params())
	}
}

func TestInsertAll_BindsNulls(t *testing.T) {
	s := newUserStatement(t, sqlite)
	r := s.InsertAll(&user{Name: str("a")})
	require.True(t, r.Succeeded())
	assert.Equal(t, `insert into "user" ("id", "name", "pwd") values (?, ?, ?)`, r.SQL())
	assert.Equal(t, []any{nil, "a", nil}, r.Params())

	r = s.InsertAll(nil)
	assert.ErrorIs(t, r.Err(), ErrStatementBuild)
}

func TestInsertReturnID(t *testing.T) {
	u := user{Name: str("a")}

	r := newUserStatement(t, mysql).InsertNonEmptyReturnID(u)
	require.True(t, r.Succeeded())
	assert.Equal(t, "insert into `user` (`name`) values (?)", r.SQL())
	assert.Equal(t, KindInsertLastID, r.Kind())

	r = newUserStatement(t, postgres).InsertAllReturnID(u)
	require.True(t, r.Succeeded())
	assert.Equal(t, `insert into "user" ("id", "name", "pwd") values (?, ?, ?) returning "id"`, r.SQL())
	assert.Equal(t, KindInsertReturning, r.Kind())

	r = newUserStatement(t, sqlite).InsertNonEmptyReturnID(u)
	assert.False(t, r.Succeeded())
	assert.True(t, IsUnsupported(r.Err()))
	assert.NotErrorIs(t, r.Err(), ErrStatementBuild)
}

func TestUpsert_DialectDivergence(t *testing.T) {
	u := user{ID: i64(1), Name: str("a"), Pwd: str("p")}

	my := newUserStatement(t, mysql).UpsertAll(u, "")
	require.True(t, my.Succeeded())
	assert.Contains(t, my.SQL(), "on duplicate key update")
	assert.Equal(t, []any{int64(1), "a", "p", int64(1), "a", "p"}, my.Params())

	pg := newUserStatement(t, postgres).UpsertAll(u, "")
	require.True(t, pg.Succeeded())
	assert.Contains(t, pg.SQL(), "on conflict")
	assert.Contains(t, pg.SQL(), "do update set")
	assert.Contains(t, pg.SQL(), "excluded.")
	assert.Equal(t, []any{int64(1), "a", "p"}, pg.Params())

	lite := newUserStatement(t, sqlite).UpsertAll(u, "")
	assert.False(t, lite.Succeeded())
	assert.ErrorIs(t, lite.Err(), ErrUnsupportedOperation)
}

func TestUpsert_ConflictTargetAndReturning(t *testing.T) {
	s := newUserStatement(t, postgres)

	r := s.UpsertNonEmptyReturnID(user{Name: str("a"), Pwd: str("p")}, "name")
	require.True(t, r.Succeeded())
	assert.Equal(t,
		`insert into "user" ("name", "pwd") values (?, ?) on conflict ("name") do update set "pwd" = excluded."pwd" returning "id"`,
		r.SQL())
	assert.Equal(t, KindInsertReturning, r.Kind())

	r = s.UpsertNonEmpty(user{ID: i64(3)}, "")
	assert.Equal(t, `insert into "user" ("id") values (?) on conflict ("id") do nothing`, r.SQL())

	r = s.UpsertNonEmpty(user{}, "")
	assert.ErrorIs(t, r.Err(), ErrStatementBuild)

	r = newUserStatement(t, mysql).UpsertAllReturnID(user{ID: i64(3)}, "")
	assert.Equal(t, KindInsertLastID, r.Kind())
}

func TestReplace(t *testing.T) {
	u := user{ID: i64(1), Name: str("a")}

	r := newUserStatement(t, mysql).Replace(u)
	require.True(t, r.Succeeded())
	assert.Equal(t, "replace into `user` (`id`, `name`, `pwd`) values (?, ?, ?)", r.SQL())
	assert.Equal(t, []any{int64(1), "a", nil}, r.Params())

	r = newUserStatement(t, postgres).Replace(u)
	assert.ErrorIs(t, r.Err(), ErrUnsupportedOperation)
}

func TestUpdateByID(t *testing.T) {
	s := newUserStatement(t, mysql)

	r := s.UpdateAllByID(user{ID: i64(5), Name: str("b")})
	require.True(t, r.Succeeded())
	assert.Equal(t, "update `user` set `name` = ?, `pwd` = ? where `id` = ?", r.SQL())
	assert.Equal(t, []any{"b", nil, int64(5)}, r.Params())

	r = s.UpdateAllByID(user{Name: str("b")})
	assert.ErrorIs(t, r.Err(), ErrStatementBuild, "missing primary key value")

	r = s.UpdateNonEmptyByID(user{ID: i64(5)})
	assert.ErrorIs(t, r.Err(), ErrStatementBuild, "nothing to set")
}

func TestUpdateByAssist(t *testing.T) {
	s := newUserStatement(t, mysql)
	set := assist.New().AndEq("name", "old")

	r := s.UpdateAllByAssist(user{Name: str("new")}, set)
	require.True(t, r.Succeeded())
	assert.Equal(t, "update `user` set `id` = ?, `name` = ?, `pwd` = ? where name = ?", r.SQL())
	assert.Equal(t, []any{nil, "new", nil, "old"}, r.Params())

	r = s.UpdateNonEmptyByAssist(user{Name: str("new")}, set)
	require.True(t, r.Succeeded())
	assert.Equal(t, "update `user` set `name` = ? where name = ?", r.SQL())
	assert.Equal(t, []any{"new", "old"}, r.Params())

	r = s.UpdateNonEmptyByAssist(user{Name: str("new")}, assist.New())
	assert.False(t, r.Succeeded())
	assert.ErrorIs(t, r.Err(), ErrStatementBuild)
	assert.NotContains(t, r.SQL(), "update `user`")

	r = s.UpdateAllByAssist(user{}, nil)
	assert.False(t, r.Succeeded())

	r = s.UpdateNonEmptyByAssist(user{}, set)
	assert.ErrorIs(t, r.Err(), ErrStatementBuild)
}

func TestUpdateSetNull(t *testing.T) {
	s := newUserStatement(t, postgres)

	r := s.UpdateSetNullByID(5, "name", "pwd")
	require.True(t, r.Succeeded())
	assert.Equal(t, `update "user" set "name" = null, "pwd" = null where "id" = ?`, r.SQL())
	assert.Equal(t, []any{5}, r.Params())

	r = s.UpdateSetNullByAssist(assist.New().AndLt("age", 3), "pwd")
	assert.Equal(t, `update "user" set "pwd" = null where age < ?`, r.SQL())
	assert.Equal(t, []any{3}, r.Params())

	assert.False(t, s.UpdateSetNullByID(5).Succeeded())
	assert.False(t, s.UpdateSetNullByID(nil, "pwd").Succeeded())
	assert.False(t, s.UpdateSetNullByID(5, " ").Succeeded())
	assert.False(t, s.UpdateSetNullByAssist(assist.New(), "pwd").Succeeded())
}

func TestDelete(t *testing.T) {
	s := newUserStatement(t, sqlite)

	r := s.DeleteByAssist(assist.New().AndIn("id", 1, 2))
	assert.Equal(t, `delete from "user" where id in (?, ?)`, r.SQL())
	assert.Equal(t, []any{1, 2}, r.Params())

	r = s.DeleteByAssist(assist.New())
	assert.ErrorIs(t, r.Err(), ErrStatementBuild)

	r = s.DeleteByID(nil)
	assert.ErrorIs(t, r.Err(), ErrStatementBuild)
}

func TestInsertBatch(t *testing.T) {
	s := newUserStatement(t, mysql)

	r := s.InsertBatch(user{ID: i64(1), Name: str("a")}, &user{ID: i64(2)})
	require.True(t, r.Succeeded())
	assert.Equal(t, KindBatch, r.Kind())
	assert.Equal(t, "insert into `user` (`id`, `name`, `pwd`) values (?, ?, ?)", r.SQL())
	assert.Equal(t, [][]any{{int64(1), "a", nil}, {int64(2), nil, nil}}, r.BatchParams())

	r = s.InsertBatchColumns([]string{"name"}, [][]any{{"a"}, {"b"}})
	require.True(t, r.Succeeded())
	assert.Equal(t, "insert into `user` (`name`) values (?)", r.SQL())
	assert.Len(t, r.BatchParams(), 2)

	assert.ErrorIs(t, s.InsertBatch().Err(), ErrStatementBuild)
	assert.ErrorIs(t, s.InsertBatchColumns(nil, [][]any{{1}}).Err(), ErrStatementBuild)
	assert.ErrorIs(t, s.InsertBatchColumns([]string{"name"}, nil).Err(), ErrStatementBuild)
	assert.ErrorIs(t, s.InsertBatchColumns([]string{"name"}, [][]any{{"a", "b"}}).Err(), ErrStatementBuild)
	assert.ErrorIs(t, s.InsertBatch(user{}, "x").Err(), meta.ErrIntrospection)
}

func TestResult_Immutable(t *testing.T) {
	r := newUserStatement(t, mysql).DeleteByID(7)
	params := r.Params()
	params[0] = 8
	assert.Equal(t, []any{7}, r.Params())

	b := newUserStatement(t, mysql).InsertBatchColumns([]string{"name"}, [][]any{{"a"}})
	batch := b.BatchParams()
	batch[0][0] = "z"
	assert.Equal(t, [][]any{{"a"}}, b.BatchParams())
}

func TestResult_Failure(t *testing.T) {
	r := newUserStatement(t, mysql).DeleteByAssist(nil)
	assert.False(t, r.Succeeded())
	assert.Equal(t, "deleteByAssist: statement build failed: condition set has no predicate", r.SQL())
	assert.Equal(t, "deleteByAssist failed: "+r.SQL(), r.String())
	assert.Empty(t, r.Params())
	assert.Equal(t, "user", r.Table())
}

func TestResult_String(t *testing.T) {
	r := newUserStatement(t, mysql).DeleteByID(7)
	assert.Equal(t, "delete from `user` where `id` = ? [7]", r.String())

	b := newUserStatement(t, mysql).InsertBatchColumns([]string{"name"}, [][]any{{"a"}, {"b"}})
	assert.Equal(t, "insert into `user` (`name`) values (?) x2", b.String())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "query", KindQuery.String())
	assert.Equal(t, "insert-last-id", KindInsertLastID.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestWithValidator(t *testing.T) {
	s := newUserStatement(t, mysql, WithValidator(security.NewValidator()))

	r := s.SelectAll(assist.New().AndEq("name", "a").OrderBy("id; drop table user", true))
	assert.False(t, r.Succeeded())
	assert.ErrorIs(t, r.Err(), ErrStatementBuild)
	assert.ErrorIs(t, r.Err(), security.ErrUnsafeFragment)

	r = s.DeleteByAssist(assist.New().WhereRaw("1 = 1 -- everything"))
	assert.ErrorIs(t, r.Err(), security.ErrUnsafeFragment)

	r = s.SelectByID(1, "", "union select * from secrets")
	assert.ErrorIs(t, r.Err(), security.ErrUnsafeFragment)

	r = s.SelectAll(assist.New().AndEq("name", "a; drop table user"))
	assert.True(t, r.Succeeded(), "bound values are not fragments")
}

func TestWithValidator_StrictScreensParams(t *testing.T) {
	lenient := newUserStatement(t, mysql, WithValidator(security.NewValidator()))
	strict := newUserStatement(t, mysql, WithValidator(security.NewValidator(security.WithStrict(true))))

	tests := []struct {
		name string
		set  *assist.ConditionSet
	}{
		{"condition", assist.New().AndEq("name", "x' OR '1'='1")},
		{"in list", assist.New().AndIn("name", "a", "admin'--")},
		{"having", assist.New().GroupBy("name").Having("count(name) > ?", "1'; drop table t")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, lenient.SelectAll(tt.set).Succeeded())

			r := strict.SelectAll(tt.set)
			assert.ErrorIs(t, r.Err(), ErrStatementBuild)
			assert.ErrorIs(t, r.Err(), security.ErrUnsafeParam)
		})
	}

	r := strict.SelectAll(assist.New().AndEq("name", "O'Brien").AndGt("id", 3))
	assert.True(t, r.Succeeded())
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	s := newUserStatement(t, mysql, WithLogger(logger.NewText(&buf, slog.LevelDebug)))

	s.DeleteByID(7)
	assert.Contains(t, buf.String(), `msg="statement synthesized"`)
	assert.Contains(t, buf.String(), "op=deleteById")
	assert.NotContains(t, buf.String(), "7]")

	buf.Reset()
	s.DeleteByAssist(nil)
	assert.Contains(t, buf.String(), `msg="statement synthesis failed"`)
}

func TestStatement_ConcurrentUse(t *testing.T) {
	s := newUserStatement(t, postgres)
	done := make(chan Result, 32)
	for i := 0; i < cap(done); i++ {
		go func(i int) {
			done <- s.UpdateNonEmptyByID(user{ID: i64(int64(i)), Name: str("n")})
		}(i)
	}
	for i := 0; i < cap(done); i++ {
		r := <-done
		assert.Equal(t, `update "user" set "name" = ? where "id" = ?`, r.SQL())
	}
	assert.Equal(t, reflect.TypeOf(user{}), s.Metadata().Type())
}
