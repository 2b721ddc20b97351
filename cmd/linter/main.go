// Command linter runs the casetrail analyzer as a standalone vet tool:
//
//	go run ./cmd/linter ./...
package main

import "golang.org/x/tools/go/analysis/singlechecker"

func main() {
	singlechecker.Main(analyzer)
}
