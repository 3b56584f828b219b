package main

import "github.com/ValentinKolb/davLS/cmd"

func main() {
	cmd.Execute()
}
