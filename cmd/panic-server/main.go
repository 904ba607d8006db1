package main

import "github.com/oshokin/panic-alert/cmd/panic-server/cmd"

func main() {
	cmd.Execute()
}
