package main

import "github.com/entrepeneur4lyf/sift/cmd/sift/cmd"

func main() {
	cmd.Execute()
}
