package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/logging"
	"github.com/sqlscribe/sqlscribe/pkg/metabase"
	"github.com/sqlscribe/sqlscribe/pkg/models"
	"github.com/sqlscribe/sqlscribe/pkg/sql"
)

// SchemaService fetches and describes the structure of the Metabase-connected
// database. Schema is fetched fresh per call; there is no cache.
type SchemaService interface {
	// FetchSchema retrieves the full database schema. Tables whose metadata
	// cannot be processed are skipped, never fatal.
	FetchSchema(ctx context.Context, metabaseSessionID string) (*models.SchemaDescription, error)

	// BuildSummary renders the schema as deterministic prompt-ready text.
	BuildSummary(schema *models.SchemaDescription) string

	// FetchSample retrieves up to limit example rows from a table. Any
	// failure, including an invalid table name, yields an empty slice.
	FetchSample(ctx context.Context, metabaseSessionID, table string, limit int) []map[string]any

	// Relationships extracts resolved foreign-key edges from a schema.
	Relationships(schema *models.SchemaDescription) []models.Relationship
}

type schemaService struct {
	client BIClient
	logger *zap.Logger
}

// NewSchemaService creates a new schema service.
func NewSchemaService(client BIClient, logger *zap.Logger) SchemaService {
	return &schemaService{
		client: client,
		logger: logger.Named("schema"),
	}
}

func (s *schemaService) FetchSchema(ctx context.Context, metabaseSessionID string) (*models.SchemaDescription, error) {
	info, err := s.client.DatabaseInfo(ctx, metabaseSessionID)
	if err != nil {
		return nil, err
	}

	metadata, err := s.client.DatabaseMetadata(ctx, metabaseSessionID)
	if err != nil {
		return nil, err
	}

	schema := &models.SchemaDescription{
		DatabaseName: info.Name,
		DatabaseType: info.Engine,
		Tables:       make([]models.TableDescription, 0, len(metadata.Tables)),
	}

	for i := range metadata.Tables {
		table, err := buildTableDescription(&metadata.Tables[i])
		if err != nil {
			s.logger.Error("Skipping table with unprocessable metadata",
				zap.String("table", metadata.Tables[i].Name),
				zap.Error(err))
			continue
		}
		schema.Tables = append(schema.Tables, *table)
	}

	s.logger.Info("Fetched database schema",
		zap.String("database", schema.DatabaseName),
		zap.Int("tables", len(schema.Tables)))

	return schema, nil
}

func buildTableDescription(table *metabase.TableMetadata) (*models.TableDescription, error) {
	if table.Name == "" {
		return nil, fmt.Errorf("table metadata has no name")
	}

	desc := &models.TableDescription{
		Name:        table.Name,
		DisplayName: table.DisplayName,
		Schema:      table.Schema,
		Columns:     make([]models.ColumnDescription, 0, len(table.Fields)),
		PrimaryKeys: []string{},
		ForeignKeys: []models.ForeignKey{},
		RowCount:    table.Rows,
	}

	for _, field := range table.Fields {
		desc.Columns = append(desc.Columns, models.ColumnDescription{
			Name:         field.Name,
			DisplayName:  field.DisplayName,
			SemanticType: field.SemanticType,
			Type:         field.BaseType,
			DatabaseType: field.DatabaseType,
			Nullable:     !field.DatabaseRequired,
			Description:  field.Description,
			FieldID:      field.ID,
		})

		switch field.SemanticType {
		case metabase.SemanticTypePK:
			desc.PrimaryKeys = append(desc.PrimaryKeys, field.Name)
		case metabase.SemanticTypeFK:
			desc.ForeignKeys = append(desc.ForeignKeys, models.ForeignKey{
				Column:            field.Name,
				ReferencedFieldID: field.FKTargetFieldID,
			})
		}
	}

	return desc, nil
}

func (s *schemaService) BuildSummary(schema *models.SchemaDescription) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Database: %s (%s)\n", schema.DatabaseName, schema.DatabaseType)
	b.WriteString("\nTables and Schema:\n")

	for _, table := range schema.Tables {
		displayName := table.DisplayName
		if displayName == "" {
			displayName = table.Name
		}
		fmt.Fprintf(&b, "\n%s (%s) - %d rows:\n", table.Name, displayName, table.RowCount)

		for _, col := range table.Columns {
			colType := col.DatabaseType
			if colType == "" {
				colType = col.Type
			}
			if colType == "" {
				colType = "unknown"
			}
			nullable := "NOT NULL"
			if col.Nullable {
				nullable = "NULL"
			}
			fmt.Fprintf(&b, "  - %s: %s %s", col.Name, colType, nullable)
			if col.Description != "" {
				fmt.Fprintf(&b, " (%s)", col.Description)
			}
			b.WriteString("\n")
		}

		if len(table.PrimaryKeys) > 0 {
			fmt.Fprintf(&b, "  Primary Keys: %s\n", strings.Join(table.PrimaryKeys, ", "))
		}
		if len(table.ForeignKeys) > 0 {
			fkCols := make([]string, 0, len(table.ForeignKeys))
			for _, fk := range table.ForeignKeys {
				fkCols = append(fkCols, fk.Column)
			}
			fmt.Fprintf(&b, "  Foreign Keys: %s\n", strings.Join(fkCols, ", "))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (s *schemaService) FetchSample(ctx context.Context, metabaseSessionID, table string, limit int) []map[string]any {
	if limit <= 0 {
		limit = 3
	}
	if err := sql.ValidateIdentifier(table); err != nil {
		s.logger.Warn("Rejected sample request for invalid table name",
			zap.String("table", logging.Sanitize(table)),
			zap.Error(err))
		return []map[string]any{}
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit)
	result, err := s.client.RunQuery(ctx, metabaseSessionID, query)
	if err != nil {
		s.logger.Warn("Failed to fetch sample data",
			zap.String("table", table),
			zap.String("error", logging.SanitizeError(err)))
		return []map[string]any{}
	}

	_, rows := result.RowMaps()
	return rows
}

func (s *schemaService) Relationships(schema *models.SchemaDescription) []models.Relationship {
	// Index every field id so FK targets can be resolved across tables.
	type fieldRef struct {
		table  string
		column string
	}
	fieldsByID := make(map[int]fieldRef)
	for _, table := range schema.Tables {
		for _, col := range table.Columns {
			if col.FieldID != 0 {
				fieldsByID[col.FieldID] = fieldRef{table: table.Name, column: col.Name}
			}
		}
	}

	relationships := []models.Relationship{}
	for _, table := range schema.Tables {
		for _, fk := range table.ForeignKeys {
			rel := models.Relationship{
				FromTable:  table.Name,
				FromColumn: fk.Column,
				ToTable:    "unknown",
				ToColumn:   "unknown",
			}
			if ref, ok := fieldsByID[fk.ReferencedFieldID]; ok {
				rel.ToTable = ref.table
				rel.ToColumn = ref.column
			}
			relationships = append(relationships, rel)
		}
	}
	return relationships
}

var _ SchemaService = (*schemaService)(nil)
