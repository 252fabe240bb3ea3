package main

import "github.com/gaurav-prasanna/notemark/cmd"

func main() {
	cmd.Execute()
}
