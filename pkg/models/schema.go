package models

// SchemaDescription is a snapshot of the connected database's structure,
// fetched fresh from Metabase on every pipeline run.
type SchemaDescription struct {
	DatabaseName string             `json:"database_name"`
	DatabaseType string             `json:"database_type"`
	Tables       []TableDescription `json:"tables"`
}

// TableDescription describes one table and its key structure.
type TableDescription struct {
	Name        string              `json:"name"`
	DisplayName string              `json:"display_name"`
	Schema      string              `json:"schema,omitempty"`
	Columns     []ColumnDescription `json:"columns"`
	PrimaryKeys []string            `json:"primary_keys"`
	ForeignKeys []ForeignKey        `json:"foreign_keys"`
	// RowCount is approximate and source-reported.
	RowCount int64 `json:"row_count"`
}

// ColumnDescription describes one column.
type ColumnDescription struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	SemanticType string `json:"semantic_type,omitempty"`
	// Type is Metabase's base type classification, e.g. "type/Integer".
	Type string `json:"type"`
	// DatabaseType is the storage engine's own type name, e.g. "varchar".
	DatabaseType string `json:"database_type"`
	Nullable     bool   `json:"nullable"`
	Description  string `json:"description,omitempty"`
	// FieldID is Metabase's field identifier, used to resolve FK targets.
	FieldID int `json:"-"`
}

// ForeignKey records a foreign-key column and the Metabase field it points at.
type ForeignKey struct {
	Column string `json:"column"`
	// ReferencedFieldID is Metabase's target field id.
	ReferencedFieldID int `json:"references"`
}

// Relationship is a resolved foreign-key edge between two tables.
// Target fields are "unknown" when the referenced field id could not be
// resolved within the fetched schema.
type Relationship struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}
