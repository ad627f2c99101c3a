package main

import "github.com/campusid/parking-portal/cmd"

func main() {
	cmd.Execute()
}
