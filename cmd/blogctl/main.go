// Command blogctl is a terminal client for the verbaVista API. Besides the
// usual account, post and category commands it can watch a local file and
// autosave it as a draft while it is being edited.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
