package main

import "ioc-sync/cmd"

func main() {
	cmd.Execute()
}
