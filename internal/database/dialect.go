package database

import "fmt"

// dialect holds the per-driver SQL that differs between backends.
type dialect struct {
	name string
	// yearExpr extracts the year from a date column on the server.
	yearExpr func(col string) string
	// idColumn is the surrogate key definition used by Import.
	idColumn string
	// dateType is the column type Import gives the date column.
	dateType string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name: DriverSQLite,
		yearExpr: func(col string) string {
			return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", col)
		},
		idColumn: "id INTEGER PRIMARY KEY AUTOINCREMENT",
		dateType: "TEXT",
	},
	DriverMySQL: {
		name: DriverMySQL,
		yearExpr: func(col string) string {
			return fmt.Sprintf("YEAR(%s)", col)
		},
		idColumn: "id INTEGER PRIMARY KEY AUTO_INCREMENT",
		dateType: "DATETIME NULL",
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}
