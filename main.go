package main

import "github.com/chrisdamba/menusync/cmd"

func main() {
	cmd.Execute()
}
