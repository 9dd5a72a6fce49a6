package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/plantops/internal/ops"
)

func main() {
	if err := ops.NewRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
