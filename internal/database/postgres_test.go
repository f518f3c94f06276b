package database

import "testing"

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		expected int
	}{
		{"numbered sql", "001_initial_schema.sql", 1},
		{"later version", "012_add_index.sql", 12},
		{"not sql", "001_notes.md", 0},
		{"no number", "schema.sql", 0},
		{"too short", ".sql", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := migrationVersion(tc.file); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}
