// cmd/xpathrewriter/main.go
package main

import (
	"os"

	"github.com/solatis/xpathrewriter/cmd/xpathrewriter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
