package main

import "github.com/dh1tw/plughost/cmd"

func main() {
	cmd.Execute()
}
