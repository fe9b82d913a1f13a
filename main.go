package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"uvmrun/cmd"
	"uvmrun/runner"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n[FATAL] %v\n", r)
			os.Exit(runner.ExitFailure)
		}
	}()

	args := os.Args[1:]
	command := "run"
	if len(args) > 0 && (args[0] == "run" || args[0] == "serve") {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "serve":
		if err := cmd.Serve(args); err != nil && !errors.Is(err, flag.ErrHelp) {
			log.Fatalf("Server failed: %v", err)
		}
	default:
		os.Exit(cmd.Run(args))
	}
}
