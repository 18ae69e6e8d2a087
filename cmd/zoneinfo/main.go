// zoneinfo CLI entrypoint - root command plus query/server/worker subcommands.
package main

import "github.com/zonetools/zoneinfo/internal/cli"

func main() {
	cli.Execute()
}
