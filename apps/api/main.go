package main

import (
	"flag"
)

func main() {
	withDig := flag.Bool("dig", true, "wire the dependencies with the dig container")
	flag.Parse()

	if *withDig {
		startWithDig()
	} else {
		startManual()
	}
}
