// Command scraper collects SEC company and NASDAQ earnings data into local
// stores and serves them over a small read-only API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
