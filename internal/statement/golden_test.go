package statement

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/coregx/sqlassist/internal/assist"
	"github.com/coregx/sqlassist/internal/dialects"
)

// renderAll synthesizes a fixed set of statements for d, one line each.
func renderAll(t *testing.T, d dialects.Dialect) []byte {
	u := user{ID: i64(5), Name: str("b")}
	s := newUserStatement(t, d)

	cases := []struct {
		name string
		r    Result
	}{
		{"count", s.Count(nil)},
		{"exists", s.Exists(assist.New().AndEq("name", "a"))},
		{"selectAll", s.SelectAll(nil)},
		{"selectAllPaged", s.SelectAll(assist.New().AndEq("name", "a").OrderBy("id", false).Page(2).RowSize(10).Paginate())},
		{"selectById", s.SelectByID(7, "", "")},
		{"selectSingleByObj", s.SelectSingleByObject(u, "", "")},
		{"insertAll", s.InsertAll(u)},
		{"insertNonEmpty", s.InsertNonEmpty(u)},
		{"insertNonEmptyReturnId", s.InsertNonEmptyReturnID(u)},
		{"upsertAll", s.UpsertAll(u, "")},
		{"replace", s.Replace(u)},
		{"updateAllById", s.UpdateAllByID(u)},
		{"updateNonEmptyById", s.UpdateNonEmptyByID(u)},
		{"updateSetNullById", s.UpdateSetNullByID(5, "pwd")},
		{"deleteById", s.DeleteByID(7)},
		{"deleteByAssist", s.DeleteByAssist(assist.New())},
		{"insertBatch", s.InsertBatch(u, u)},
	}

	var sb strings.Builder
	for _, c := range cases {
		fmt.Fprintf(&sb, "%s: %s\n", c.name, c.r.SQL())
	}
	return []byte(sb.String())
}

func TestGolden_Dialects(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	for _, name := range []string{"mysql", "postgres", "sqlite"} {
		t.Run(name, func(t *testing.T) {
			g.Assert(t, name, renderAll(t, dialects.GetDialect(name)))
		})
	}
}
