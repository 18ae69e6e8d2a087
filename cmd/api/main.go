// zoneinfo API server entrypoint - delegates to cli.NewServerCommand.
//
//go:generate go run github.com/swaggo/swag/cmd/swag@latest init -g cmd/api/main.go -o internal/api/docs --parseDependency --parseInternal
package main

import (
	"fmt"
	"os"

	_ "github.com/zonetools/zoneinfo/internal/api/docs" // swagger docs
	"github.com/zonetools/zoneinfo/internal/cli"
)

// @title zoneinfo API
// @version 1.0.0
// @description Asynchronous DNS zone inspection: SOA and NS discovery, per-nameserver serial probes, delegation checks, and zone transfer tests
// @description Submit zone inspections or DNS lookups and retrieve results asynchronously
//
// @contact.name zoneinfo
// @contact.url https://github.com/zonetools/zoneinfo
// @contact.email contact@example.com
//
// @license.name MIT
// @license.url https://github.com/zonetools/zoneinfo/blob/main/LICENSE
//
// @host localhost:5000
// @BasePath /
// @schemes http https
//
// @tag.name Zone
// @tag.description Zone inspection operations
// @tag.name DNS
// @tag.description DNS lookup operations
// @tag.name Tasks
// @tag.description Task management and status retrieval
// @tag.name System
// @tag.description System health and metrics
func main() {
	cmd := cli.NewServerCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
