// Command schemagen infers canonical event schemas from sampled channels and
// renders Drill views, Spark views and ETL job descriptors for them.
//
//	schemagen validate --config run.yaml
//	schemagen inspect  --config run.yaml [--event-type order.created]
//	schemagen generate --config run.yaml [--run-id ID] [--out DIR]
package main

import (
	"fmt"
	"os"

	// register all artifact store backends with the storage factory.
	_ "eventschema/internal/storage/all"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
