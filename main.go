package main

import "github.com/frahmantamala/practice-gateway/cmd"

func main() {
	cmd.Execute()
}
