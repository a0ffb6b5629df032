// Package screen holds the table and column names of the Screen entity.
package screen

const (
	// Label holds the string label denoting the screen type in the database.
	Label = "screen"
	// FieldID holds the string denoting the id field in the database.
	FieldID = "id"
	// FieldGenerationID holds the string denoting the generation_id field in the database.
	FieldGenerationID = "generation_id"
	// FieldIndex holds the string denoting the index field in the database.
	FieldIndex = "idx"
	// FieldName holds the string denoting the name field in the database.
	FieldName = "name"
	// FieldDescription holds the string denoting the description field in the database.
	FieldDescription = "description"
	// FieldCode holds the string denoting the code field in the database.
	FieldCode = "code"
	// FieldTruncated holds the string denoting the truncated field in the database.
	FieldTruncated = "truncated"
	// FieldCreatedAt holds the string denoting the created_at field in the database.
	FieldCreatedAt = "created_at"
	// Table holds the table name of the screen in the database.
	Table = "screens"
)

// Columns holds all SQL columns for screen fields, in schema order.
var Columns = []string{
	FieldID,
	FieldGenerationID,
	FieldIndex,
	FieldName,
	FieldDescription,
	FieldCode,
	FieldTruncated,
	FieldCreatedAt,
}

// ValidColumn reports if the column name is valid (part of the table columns).
func ValidColumn(column string) bool {
	for i := range Columns {
		if column == Columns[i] {
			return true
		}
	}
	return false
}
