package main

var version = "dev"

func main() {
	Execute(version)
}
