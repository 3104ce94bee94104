package main

import "receipt-engine/cmd"

func main() {
	cmd.Execute()
}
