package main

import (
	"fmt"

	"github.com/k2field/worklistbroker/workflow/storage"
	"github.com/k2field/worklistbroker/workflow/storage/diskv"
	"github.com/k2field/worklistbroker/workflow/storage/inmem"
	"github.com/k2field/worklistbroker/workflow/storage/mysql"

	_ "github.com/go-sql-driver/mysql"
)

func parseStorage(name, dsn string) (storage.Storage, error) {
	switch name {
	case "inmem":
		return inmem.New(), nil
	case "file", "diskv":
		if dsn == "" {
			dsn = "db"
		}
		return diskv.New(dsn), nil
	case "mysql":
		return mysql.New(mysql.WithDSN(dsn))
	}
	return nil, fmt.Errorf("unknown storage: %s", name)
}
