// Package warehouse holds the engine registry used to open a target database.
//
// Each backend lives in its own subpackage and registers itself from init:
//
//	import _ "github.com/nyc-warehouse/snapload/internal/warehouse/postgres"
//
// Importing internal/warehouse/all registers every backend. Callers then open
// a connection by engine name:
//
//	wh, err := warehouse.Open(ctx, cfg, warehouse.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	defer wh.Close()
//
// The package also carries the SQL text helpers the backends share: identifier
// splitting and quoting, and parameter-bounded row chunking.
package warehouse
