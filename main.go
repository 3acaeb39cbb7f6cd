package main

import (
	"os"

	"github.com/zhaoxiaowang1993/ai-doc-review/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
