//go:build !ebiten

package main

import (
	"fmt"
	"os"

	"lifesync/internal/app"
)

func main() {
	if _, err := app.New(app.NewConfig(), nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "run `go run -tags ebiten ./cmd/ca` to open the viewer")
		os.Exit(2)
	}
}
