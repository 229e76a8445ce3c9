// Package main provides the kudusql command-line tool.
package main

import (
	"os"

	_ "github.com/bippio/go-impala" // registers the "impala" database/sql driver

	"github.com/leapstack-labs/kudusql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
