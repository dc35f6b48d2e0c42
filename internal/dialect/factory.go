package dialect

import "fmt"

// GetDialect returns the Dialect implementation for a driver name.
func GetDialect(driver string) (Dialect, error) {
	switch driver {
	case "sqlserver", "mssql":
		return &MSSQLDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q: MS_Description is SQL Server only", driver)
	}
}

// Ensure interface implementation
var _ Dialect = (*MSSQLDialect)(nil)
