// Package schema renders data models as a Prisma schema and as PostgreSQL
// DDL, and applies DDL to a live database.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/v0xg/appscout/internal/model"
)

const prismaHeader = `// Generated by appscout. Review before running migrations.

generator client {
  provider = "prisma-client-js"
}

datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}
`

var prismaTypes = map[model.FieldType]string{
	model.TypeString:  "String",
	model.TypeNumber:  "Int",
	model.TypeBoolean: "Boolean",
	model.TypeDate:    "DateTime",
	model.TypeEmail:   "String",
	model.TypeURL:     "String",
	model.TypeArray:   "String[]",
	model.TypeObject:  "Json",
}

// PrismaType maps a semantic field type to its Prisma scalar.
func PrismaType(t model.FieldType) string {
	if s, ok := prismaTypes[t]; ok {
		return s
	}
	return "String"
}

type column struct {
	name, typ, attrs string
}

// Prisma renders the full schema. Output depends only on the models, so
// repeated emission is byte-identical.
func Prisma(models []model.DataModel) string {
	var b strings.Builder
	b.WriteString(prismaHeader)
	for _, m := range models {
		b.WriteString("\n")
		writePrismaModel(&b, m)
	}
	return b.String()
}

func writePrismaModel(b *strings.Builder, m model.DataModel) {
	var cols []column
	if !m.HasIdentity() {
		cols = append(cols, column{"id", "String", "@id @default(cuid())"})
	}
	for _, f := range m.Fields {
		name, mapped := identifier(f.Name)
		if managedPrisma[name] {
			continue
		}
		c := column{name: name, typ: PrismaType(f.Type)}
		var attrs []string
		if strings.EqualFold(f.Name, "id") {
			attrs = append(attrs, "@id")
		}
		if mapped {
			attrs = append(attrs, fmt.Sprintf("@map(%q)", f.Name))
		}
		c.attrs = strings.Join(attrs, " ")
		cols = append(cols, c)
	}
	cols = append(cols,
		column{"createdAt", "DateTime", "@default(now())"},
		column{"updatedAt", "DateTime", "@updatedAt"},
	)

	nameW, typeW := 0, 0
	for _, c := range cols {
		nameW = max(nameW, len(c.name))
		typeW = max(typeW, len(c.typ))
	}

	modelName, _ := identifier(m.Name)
	fmt.Fprintf(b, "model %s {\n", modelName)
	for _, c := range cols {
		line := fmt.Sprintf("  %-*s %-*s %s", nameW, c.name, typeW, c.typ, c.attrs)
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}
	b.WriteString("}\n")
}

// Write stores a generated artifact at path, creating parent directories.
func Write(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create schema directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
