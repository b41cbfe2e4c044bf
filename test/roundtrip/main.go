package main

import (
	"github.com/spf13/cobra"

	"github.com/zostay/go-mimestream/test/roundtrip/cmd"
)

func main() {
	err := cmd.Execute()
	cobra.CheckErr(err)
}
