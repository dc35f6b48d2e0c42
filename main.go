package main

import (
	"db-describe/cmd"

	_ "github.com/denisenkom/go-mssqldb"
)

func main() {
	cmd.Execute()
}
