package schema

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/appscout/internal/model"
)

func order() model.DataModel {
	return model.DataModel{Name: "Order", Fields: model.Fields{
		{Name: "status", Type: model.TypeString},
		{Name: "total", Type: model.TypeNumber},
	}}
}

func TestPrisma_SynthesizesIdentityAndTimestamps(t *testing.T) {
	got := Prisma([]model.DataModel{order()})

	want := prismaHeader + `
model Order {
  id        String   @id @default(cuid())
  status    String
  total     Int
  createdAt DateTime @default(now())
  updatedAt DateTime @updatedAt
}
`
	assert.Equal(t, want, got)
}

func TestPrisma_ExistingIdentityAndMapping(t *testing.T) {
	m := model.DataModel{Name: "User", Fields: model.Fields{
		{Name: "ID", Type: model.TypeNumber},
		{Name: "email", Type: model.TypeEmail},
		{Name: "tags", Type: model.TypeArray},
		{Name: "profile", Type: model.TypeObject},
		{Name: "joined", Type: model.TypeDate},
		{Name: "label-text", Type: model.TypeString},
		{Name: "createdAt", Type: model.TypeDate},
	}}
	got := Prisma([]model.DataModel{m})

	assert.Contains(t, got, "  ID         Int      @id\n")
	assert.NotContains(t, got, "cuid()")
	assert.Contains(t, got, "String[]")
	assert.Contains(t, got, "  profile    Json\n")
	assert.Contains(t, got, `label_text String   @map("label-text")`)
	assert.Equal(t, 1, strings.Count(got, "createdAt"))
}

func TestManagedTimestamps_DropOnlyExactCollisions(t *testing.T) {
	m := model.DataModel{Name: "Event", Fields: model.Fields{
		{Name: "created_at", Type: model.TypeDate},
		{Name: "updatedAt", Type: model.TypeDate},
		{Name: "title", Type: model.TypeString},
	}}

	prisma := Prisma([]model.DataModel{m})
	assert.Contains(t, prisma, "  created_at DateTime\n")
	assert.Equal(t, 1, strings.Count(prisma, "  updatedAt "))
	assert.Less(t, strings.Index(prisma, "created_at"), strings.Index(prisma, "title"))

	ddl := Postgres([]model.DataModel{m})
	assert.Equal(t, 1, strings.Count(ddl, `"created_at" timestamptz`))
	assert.Equal(t, 1, strings.Count(ddl, `"updated_at" timestamptz`))
	assert.Contains(t, ddl, `"title" text,`)
}

func TestPrisma_Idempotent(t *testing.T) {
	models := []model.DataModel{order(), {Name: "Tag", Fields: model.Fields{{Name: "label", Type: model.TypeString}}}}
	assert.Equal(t, Prisma(models), Prisma(models))
}

func TestPrismaType_Total(t *testing.T) {
	for _, ft := range model.AllFieldTypes {
		assert.NotEmpty(t, PrismaType(ft), ft)
	}
	assert.Equal(t, "String", PrismaType("unknown"))
}

func TestPostgres(t *testing.T) {
	m := model.DataModel{Name: "OrderItem", Fields: model.Fields{
		{Name: "productId", Type: model.TypeString},
		{Name: "quantity", Type: model.TypeNumber},
		{Name: "meta", Type: model.TypeObject},
	}}
	got := Postgres([]model.DataModel{m})

	assert.Contains(t, got, `CREATE TABLE IF NOT EXISTS "order_item" (`)
	assert.Contains(t, got, `"id" text PRIMARY KEY DEFAULT gen_random_uuid()::text,`)
	assert.Contains(t, got, `"product_id" text,`)
	assert.Contains(t, got, `"quantity" integer,`)
	assert.Contains(t, got, `"meta" jsonb,`)
	assert.Contains(t, got, `CREATE TRIGGER "order_item_touch_updated_at" BEFORE UPDATE ON "order_item"`)
	assert.Equal(t, got, Postgres([]model.DataModel{m}))
}

func TestSnake(t *testing.T) {
	for in, want := range map[string]string{
		"OrderItem":  "order_item",
		"userID":     "user_id",
		"HTMLParser": "html_parser",
		"label-text": "label_text",
		"id":         "id",
	} {
		assert.Equal(t, want, snake(in), in)
	}
}

func TestWrite_CreatesParents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "prisma", "nested", "schema.prisma")
	require.NoError(t, Write(p, "x"))
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestApply_RequiresDSN(t *testing.T) {
	assert.ErrorIs(t, Apply(context.Background(), "  ", "SELECT 1"), ErrNoDSN)
}

func TestApply_Postgres(t *testing.T) {
	dsn := os.Getenv("APPSCOUT_TEST_DSN")
	if dsn == "" {
		t.Skip("APPSCOUT_TEST_DSN not set")
	}
	require.NoError(t, Apply(context.Background(), dsn, Postgres([]model.DataModel{order()})))
}
