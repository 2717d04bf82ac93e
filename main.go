package main

import (
	"os"

	"github.com/AnyUserName/jpegbench/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
