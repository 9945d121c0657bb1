// main.go
package main

import (
	"os"

	"marketplace-auth/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
