package metabase

// DatabaseInfo is the response of GET /api/database/{id}.
type DatabaseInfo struct {
	Name   string `json:"name"`
	Engine string `json:"engine"`
}

// DatabaseMetadata is the response of GET /api/database/{id}/metadata.
type DatabaseMetadata struct {
	Tables []TableMetadata `json:"tables"`
}

// TableMetadata describes one table as reported by Metabase.
type TableMetadata struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Schema      string          `json:"schema"`
	Rows        int64           `json:"rows"`
	Fields      []FieldMetadata `json:"fields"`
}

// FieldMetadata describes one column as reported by Metabase.
type FieldMetadata struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	DisplayName      string `json:"display_name"`
	BaseType         string `json:"base_type"`
	DatabaseType     string `json:"database_type"`
	SemanticType     string `json:"semantic_type"`
	Description      string `json:"description"`
	DatabaseRequired bool   `json:"database_required"`
	FKTargetFieldID  int    `json:"fk_target_field_id"`
}

// Semantic type markers Metabase uses for key columns.
const (
	SemanticTypePK = "type/PK"
	SemanticTypeFK = "type/FK"
)

// DatasetResult is the parsed result of POST /api/dataset.
type DatasetResult struct {
	Columns     []string
	Rows        [][]any
	RunningTime float64
}

// datasetResponse mirrors the wire shape of POST /api/dataset.
type datasetResponse struct {
	Status      string      `json:"status"`
	Error       string      `json:"error"`
	RunningTime float64     `json:"running_time"`
	Data        datasetData `json:"data"`
}

type datasetData struct {
	Cols            []datasetColumn `json:"cols"`
	Rows            [][]any         `json:"rows"`
	ResultsMetadata resultsMetadata `json:"results_metadata"`
}

type resultsMetadata struct {
	Columns []datasetColumn `json:"columns"`
}

type datasetColumn struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// sessionResponse is the response of POST /api/session.
type sessionResponse struct {
	ID string `json:"id"`
}

// userResponse is the response of GET /api/user/current.
type userResponse struct {
	ID          int    `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}
