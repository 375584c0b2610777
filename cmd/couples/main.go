package main

import "github.com/eojedapilchik/couples-app/internal/cli"

func main() {
	cli.Execute()
}
