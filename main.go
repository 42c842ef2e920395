package main

import "github.com/lengapp/leng-api/cmd"

func main() {
	cmd.Execute()
}
