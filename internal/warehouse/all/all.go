// Package all registers every warehouse backend.
package all

import (
	_ "github.com/nyc-warehouse/snapload/internal/warehouse/mssql"
	_ "github.com/nyc-warehouse/snapload/internal/warehouse/postgres"
	_ "github.com/nyc-warehouse/snapload/internal/warehouse/sqlite"
)
