package main

import "github.com/Data-to-Insight-Center/dcs-code-sub004/internal/cli"

func main() {
	cli.Execute()
}
