package model

import (
	"sort"
	"strings"
)

// ColumnInfo describes a single column of a table.
type ColumnInfo struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	Nullable     bool   `json:"nullable"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	IsForeignKey bool   `json:"is_foreign_key"`
}

// ForeignKey describes a referential constraint on a table.
type ForeignKey struct {
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// TableSchema describes one table of the target database.
type TableSchema struct {
	Name        string       `json:"name"`
	Columns     []ColumnInfo `json:"columns"`
	PrimaryKeys []string     `json:"primary_keys,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`

	// RowCount is advisory; 0 means unknown.
	RowCount int64 `json:"row_count,omitempty"`
}

// Relationship is a flattened cross-table edge.
type Relationship struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

// SchemaDescription is the database shape supplied by an external
// collaborator. It is treated as read-only by the engine.
type SchemaDescription struct {
	Tables        map[string]TableSchema `json:"tables"`
	Relationships []Relationship         `json:"relationships,omitempty"`
}

// HasTable reports whether the schema contains the named table,
// case-insensitively.
func (s SchemaDescription) HasTable(name string) bool {
	if _, ok := s.Tables[name]; ok {
		return true
	}
	lower := strings.ToLower(name)
	for t := range s.Tables {
		if strings.ToLower(t) == lower {
			return true
		}
	}
	return false
}

// RelevantTables returns the schema tables mentioned in the query text.
// A table counts as mentioned when its lowercased name or a naive
// singular/plural variant occurs in the lowercased query. The result is
// sorted so callers see a deterministic order.
func (s SchemaDescription) RelevantTables(query string) []string {
	q := strings.ToLower(query)

	var relevant []string
	for name := range s.Tables {
		if tableMentioned(q, strings.ToLower(name)) {
			relevant = append(relevant, name)
		}
	}
	sort.Strings(relevant)
	return relevant
}

func tableMentioned(query, table string) bool {
	if table == "" {
		return false
	}
	if strings.Contains(query, table) {
		return true
	}
	if singular := strings.TrimSuffix(table, "s"); singular != table && strings.Contains(query, singular) {
		return true
	}
	return strings.Contains(query, table+"s")
}
