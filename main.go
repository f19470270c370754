package main

import "github.com/theirongolddev/ctrip/cmd"

func main() {
	cmd.Execute()
}
