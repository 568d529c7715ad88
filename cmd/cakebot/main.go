// Package main starts the cakebot process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	cakebotcmd "github.com/CryptaEcto/Discordcakebot/internal/cmd/cakebot"
)

func main() {
	cfg, err := cakebotcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[CAKEBOT] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cakebotcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to run: %v", err)
	}
}
