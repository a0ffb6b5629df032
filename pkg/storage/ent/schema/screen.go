package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Screen holds the schema definition for the Screen entity.
// A refined screen is a new row in the same generation.
type Screen struct {
	ent.Schema
}

// Annotations of the Screen.
func (Screen) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "screens"},
	}
}

// Fields of the Screen.
func (Screen) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable().
			NotEmpty(),

		field.String("generation_id").
			Immutable().
			NotEmpty(),

		field.Int("index").
			StorageKey("idx").
			Immutable().
			NonNegative(),

		field.Text("name"),

		field.Text("description").
			Default(""),

		field.Text("code").
			Default(""),

		field.Bool("truncated").
			Default(false),

		// Unix nanoseconds, so both dialects order it the same way.
		field.Int64("created_at").
			Immutable(),
	}
}

// Indexes of the Screen.
func (Screen) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("generation_id", "index"),
	}
}
