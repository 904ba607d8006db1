package main

import "github.com/oshokin/panic-alert/cmd/panic-button/cmd"

func main() {
	cmd.Execute()
}
