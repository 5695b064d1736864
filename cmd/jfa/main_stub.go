//go:build !ebiten

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "The GUI build of jumpflood requires the ebiten build tag.")
	fmt.Fprintln(os.Stderr, "Re-run with `go run -tags ebiten ./cmd/jfa` or build with `-tags ebiten`.")
	fmt.Fprintln(os.Stderr, "For headless output use ./cmd/jfa-render.")
	os.Exit(2)
}
