package main

import (
	"github.com/avbuild/avconf/cmd/avconf/internal"
)

func main() {
	internal.Execute()
}
