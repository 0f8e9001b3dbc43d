package main

import "github.com/jobtracker/apiserver/cmd"

func main() {
	cmd.Execute()
}
