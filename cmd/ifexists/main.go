// Command ifexists filters a KGTK file, keeping the rows whose key is present
// (or absent, with --invert) in a second KGTK file.
package main

import (
	"os"

	"github.com/AdRoll/ifexists"
	"github.com/AdRoll/ifexists/kgtk"
	"github.com/AdRoll/ifexists/metrics"
)

func main() {
	components := ifexists.Components{
		Open:    kgtk.Open,
		Create:  kgtk.Create,
		Metrics: metrics.All,
	}

	if err := ifexists.MainCLI(components, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
