package main

import "github.com/tayloree/agency-catalog/cmd"

func main() {
	cmd.Execute()
}
