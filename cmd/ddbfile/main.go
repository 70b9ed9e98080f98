package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"
	"github.com/sirupsen/logrus"
	"github.com/tinystorage/ddb/cmd/ddbfile/command"
	"github.com/tinystorage/ddb/internal/config"
)

func main() {
	args := os.Args[1:]

	cfg := config.Default()
	if path := os.Getenv("DDBFILE_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err.Error())
			os.Exit(1)
		}
		cfg = loaded
	}

	log := logrus.New()
	log.SetLevel(cfg.LogLevel)

	commands := map[string]cli.CommandFactory{
		"create": func() (cli.Command, error) {
			return &command.CreateCommand{Log: log, DataDir: cfg.DataDir}, nil
		},
		"insert": func() (cli.Command, error) {
			return &command.InsertCommand{Log: log}, nil
		},
		"find": func() (cli.Command, error) {
			return &command.FindCommand{Log: log}, nil
		},
		"scan": func() (cli.Command, error) {
			return &command.ScanCommand{Log: log}, nil
		},
	}

	ddbCLI := &cli.CLI{
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("ddbfile"),
	}

	exitCode, err := ddbCLI.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	os.Exit(exitCode)
}
