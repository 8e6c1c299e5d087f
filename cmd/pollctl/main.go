package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vncsmyrnk/pollctl/internal/adapters/handler/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(nil, nil)
	err := cli.NewRootCommand(app).ExecuteContext(ctx)
	_ = app.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", cli.UserMessage(err))
		stop()
		os.Exit(1)
	}
}
