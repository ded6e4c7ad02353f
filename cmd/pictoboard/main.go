// Command pictoboard manages a local pictogram communication board store.
package main

import "github.com/mesh-intelligence/pictoboard/internal/cli"

func main() {
	cli.Execute()
}
