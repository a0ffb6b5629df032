// Package migrate describes the SQL tables of the ent schema and applies
// them with ent's schema migration engine.
package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/papercomputeco/screens/pkg/storage/ent/screen"
)

var (
	// ScreensColumns holds the columns for the "screens" table.
	ScreensColumns = []*schema.Column{
		{Name: screen.FieldID, Type: field.TypeString, Unique: true},
		{Name: screen.FieldGenerationID, Type: field.TypeString},
		{Name: screen.FieldIndex, Type: field.TypeInt},
		{Name: screen.FieldName, Type: field.TypeString, Size: 2147483647},
		{Name: screen.FieldDescription, Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: screen.FieldCode, Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: screen.FieldTruncated, Type: field.TypeBool, Default: false},
		{Name: screen.FieldCreatedAt, Type: field.TypeInt64},
	}
	// ScreensTable holds the schema information for the "screens" table.
	ScreensTable = &schema.Table{
		Name:       screen.Table,
		Columns:    ScreensColumns,
		PrimaryKey: []*schema.Column{ScreensColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "screen_generation_id_idx",
				Unique:  false,
				Columns: []*schema.Column{ScreensColumns[1], ScreensColumns[2]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ScreensTable,
	}
)

// Create runs the append-only auto migration for all tables: missing
// tables, columns and indexes are added, nothing is dropped.
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("ent/migrate: %w", err)
	}
	return m.Create(ctx, Tables...)
}
