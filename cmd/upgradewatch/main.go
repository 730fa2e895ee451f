package main

import "github.com/cosmoswatch/upgradewatch/internal/cli"

func main() {
	cli.Execute()
}
