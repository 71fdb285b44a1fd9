// Command attention-guard watches a driver or desk worker for drowsiness and
// distraction from face mesh landmarks pushed by an external detector.
package main

import (
	"fmt"
	"os"

	"github.com/teslashibe/go-attention/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
