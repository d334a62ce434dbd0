package main

import "github.com/vietddude/paygate/internal/cli"

func main() {
	cli.Execute()
}
