// Package main generates a shard host signing seed.
package main

import (
	"os"

	"github.com/wasmColonies/core/internal/platform/config"
	"github.com/wasmColonies/core/internal/tools/hostkey"
)

func main() {
	if err := hostkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate host key: %v", err)
	}
}
