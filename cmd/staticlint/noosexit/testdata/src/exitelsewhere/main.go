package main

import "os"

func main() {
	fail()
}

func fail() {
	os.Exit(2)
}
