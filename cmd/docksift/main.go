// Command docksift lints Dockerfiles and Containerfiles.
package main

import (
	"os"

	"github.com/wharflab/docksift/cmd/docksift/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
