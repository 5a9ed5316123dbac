package main

import "github.com/vietddude/rankcheck/internal/cli"

func main() {
	cli.ExecuteProxyIP()
}
