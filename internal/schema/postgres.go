package schema

import (
	"fmt"
	"strings"

	"github.com/v0xg/appscout/internal/model"
)

var pgTypes = map[model.FieldType]string{
	model.TypeString:  "text",
	model.TypeNumber:  "integer",
	model.TypeBoolean: "boolean",
	model.TypeDate:    "timestamptz",
	model.TypeEmail:   "text",
	model.TypeURL:     "text",
	model.TypeArray:   "text[]",
	model.TypeObject:  "jsonb",
}

const touchFunction = `CREATE OR REPLACE FUNCTION appscout_touch_updated_at() RETURNS trigger AS $$
BEGIN
  NEW.updated_at = now();
  RETURN NEW;
END;
$$ LANGUAGE plpgsql;
`

// TableName is the snake_case table a model maps to.
func TableName(m model.DataModel) string {
	return snake(m.Name)
}

// Postgres renders DDL equivalent to the Prisma schema: one table per model
// with an identity column, the managed timestamps and an update trigger.
func Postgres(models []model.DataModel) string {
	var b strings.Builder
	b.WriteString("-- Generated by appscout. Review before applying.\n\n")
	b.WriteString(touchFunction)
	for _, m := range models {
		b.WriteString("\n")
		writeTable(&b, m)
	}
	return b.String()
}

func writeTable(b *strings.Builder, m model.DataModel) {
	table := TableName(m)
	var cols []string
	if !m.HasIdentity() {
		cols = append(cols, `"id" text PRIMARY KEY DEFAULT gen_random_uuid()::text`)
	}
	for _, f := range m.Fields {
		colName := snake(f.Name)
		if managedColumns[colName] {
			continue
		}
		typ, ok := pgTypes[f.Type]
		if !ok {
			typ = "text"
		}
		col := fmt.Sprintf("%s %s", quoteIdent(colName), typ)
		if strings.EqualFold(f.Name, "id") {
			col += " PRIMARY KEY"
		}
		cols = append(cols, col)
	}
	cols = append(cols,
		`"created_at" timestamptz NOT NULL DEFAULT now()`,
		`"updated_at" timestamptz NOT NULL DEFAULT now()`,
	)

	fmt.Fprintf(b, "CREATE TABLE IF NOT EXISTS %s (\n  %s\n);\n", quoteIdent(table), strings.Join(cols, ",\n  "))
	trigger := quoteIdent(table + "_touch_updated_at")
	fmt.Fprintf(b, "DROP TRIGGER IF EXISTS %s ON %s;\n", trigger, quoteIdent(table))
	fmt.Fprintf(b, "CREATE TRIGGER %s BEFORE UPDATE ON %s\n  FOR EACH ROW EXECUTE FUNCTION appscout_touch_updated_at();\n",
		trigger, quoteIdent(table))
}
