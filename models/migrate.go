package models

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&BlogPost{},
		&BlogTag{},
		&BlogPostCategory{},
	}
}

// Migrate creates or alters the tables for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// ColumnMismatchReport lists, per table, the database columns that no model
// field maps to. Tables that do not exist yet are skipped.
func ColumnMismatchReport(db *gorm.DB) (map[string][]string, error) {
	report := make(map[string][]string)

	for _, model := range All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		table := stmt.Schema.Table

		if !db.Migrator().HasTable(table) {
			continue
		}

		known := make(map[string]bool, len(stmt.Schema.Fields))
		for _, field := range stmt.Schema.Fields {
			if field.DBName != "" {
				known[field.DBName] = true
			}
		}

		columns, err := db.Migrator().ColumnTypes(table)
		if err != nil {
			return nil, fmt.Errorf("columns of %s: %w", table, err)
		}

		var mismatches []string
		for _, column := range columns {
			if !known[column.Name()] {
				mismatches = append(mismatches, column.Name())
			}
		}
		if len(mismatches) > 0 {
			sort.Strings(mismatches)
			report[table] = mismatches
		}
	}

	return report, nil
}
