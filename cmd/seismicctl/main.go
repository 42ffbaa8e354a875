// Command seismicctl is a small end-to-end harness over the seismic core:
// build a segment from a JSON document dump, merge several segments into
// one (re-clustering as it goes), and run a query against a segment.
// Retargets the teacher's cmd/index, cmd/create-index, cmd/query,
// cmd/stats entry points (one flag-parsing main per task) at the sparse
// token:weight document format, collapsed into one binary with
// subcommands instead of eight near-duplicate scripts.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "merge":
		err = runMerge(os.Args[2:])
	case "query":
		err = runQuery(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "seismicctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: seismicctl <command> [flags]

commands:
  build   index a JSON document dump into a new segment directory
  merge   combine several segment directories into one, re-clustering
  query   run a top-K query against a segment directory`)
}
