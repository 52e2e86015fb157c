// Command markable manages polymorphic marks from the command line.
package main

import "github.com/mesh-intelligence/markable/internal/cli"

func main() {
	cli.Execute()
}
