package main

import "sip_call_diagnoser_go/cmd"

func main() {
	cmd.Execute()
}
