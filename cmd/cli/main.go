package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/usersvc/internal/admin"
)

func main() {
	root := admin.NewRootCommand(admin.DefaultEnv())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
