package main

import "github.com/MeKo-Tech/digitread/cmd/digitread/cmd"

func main() {
	cmd.Execute()
}
