package main

import "github.com/oshokin/panic-alert/cmd/panic-console/cmd"

func main() {
	cmd.Execute()
}
