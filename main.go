// The main package for the clipcrawl executable.
package main

import "github.com/voidworks/clipcrawl/cmd"

func main() {
	cmd.Execute()
}
