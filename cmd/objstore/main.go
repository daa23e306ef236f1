/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command objstore reads and writes objectstore partitions and runs the
// connection supervisor with a metrics endpoint.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
