package meta

import (
	"reflect"
	"strings"
)

// ColumnNameFunc converts Go struct field names to snake_case column names.
// It is used for tags that mark a field without naming its column (db:",pk").
func ColumnNameFunc(field string) string {
	result := make([]rune, 0, len(field)+5)
	for i, r := range field {
		if i > 0 && 'A' <= r && r <= 'Z' {
			result = append(result, '_')
		}
		result = append(result, r)
	}
	return strings.ToLower(string(result))
}

// parseDBTag parses a db tag.
//
// Supported formats:
//   - "column"                -> plain column
//   - "column,pk"             -> primary key column
//   - "column,alias=name"     -> column selected as name
//   - "column,pk,alias=name"  -> both
//   - "-"                     -> skip field
func parseDBTag(tag string) (column string, isPK bool, alias string) {
	parts := strings.Split(tag, ",")
	column = strings.TrimSpace(parts[0])

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		switch {
		case part == "pk":
			isPK = true
		case strings.HasPrefix(part, "alias="):
			alias = strings.TrimSpace(strings.TrimPrefix(part, "alias="))
		}
	}
	return column, isPK, alias
}

// Describe reads the declaration of a struct type: its table from TableName
// and its columns from db tags. Unexported and untagged fields are ignored.
func Describe(t reflect.Type) (Declaration, error) {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return Declaration{}, ErrInvalidShape
	}

	decl := Declaration{Table: tableName(t)}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, ok := field.Tag.Lookup("db")
		if !ok {
			continue
		}
		column, isPK, alias := parseDBTag(tag)
		if column == "-" {
			continue
		}
		if column == "" {
			column = ColumnNameFunc(field.Name)
		}
		role := RoleColumn
		if isPK {
			role = RolePrimaryKey
		}
		decl.Fields = append(decl.Fields, FieldMapping{
			Field:  field.Name,
			Column: column,
			Role:   role,
			Alias:  alias,
			index:  field.Index,
		})
	}
	return decl, nil
}

// tableName asks the value or pointer receiver of t for its TableName.
func tableName(t reflect.Type) string {
	if tm, ok := reflect.Zero(t).Interface().(TableModel); ok {
		return tm.TableName()
	}
	if tm, ok := reflect.New(t).Interface().(TableModel); ok {
		return tm.TableName()
	}
	return ""
}

func shapeName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
