package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/authgate/authgate/cmd/root"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
