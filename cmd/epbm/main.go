package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"epbm-autofill/internal/cli"
	"epbm-autofill/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	// The first interrupt stops the run after the current questionnaire;
	// a second one kills the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	code := cli.Execute(ctx, cli.NewApp(envService), os.Args[1:])
	stop()
	os.Exit(code)
}
