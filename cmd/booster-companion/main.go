// Command booster-companion runs the booster economy from the terminal or as
// a local REST/WebSocket server.
package main

import "github.com/ramonehamilton/booster-companion/internal/cli"

func main() {
	cli.Execute()
}
