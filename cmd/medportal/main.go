// Command medportal manages medical records, prescriptions and attachment
// files against the configured durable medium and payload store.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
