package command

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tinystorage/ddb/internal/storage"
)

// FindCommand looks up a single row by key.
type FindCommand struct {
	Log *logrus.Logger
}

func (c *FindCommand) Help() string {
	return strings.TrimSpace(`
Usage: ddbfile find <path> <key>
`)
}

func (c *FindCommand) Synopsis() string {
	return "Looks up a row by key"
}

func (c *FindCommand) Run(args []string) int {
	flags := flag.NewFlagSet("find", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return 1
	}
	rest := flags.Args()
	if len(rest) != 2 {
		fmt.Println(c.Help())
		return 1
	}

	key, err := strconv.ParseUint(rest[1], 10, 32)
	if err != nil {
		c.Log.WithError(err).Error("parsing key")
		return 1
	}

	pager, err := storage.OpenFile(rest[0], 4096, c.Log.WithField("cmd", "find"))
	if err != nil {
		c.Log.WithError(err).Error("opening file")
		return 1
	}
	defer pager.Close()

	bt, err := storage.Open(pager, c.Log.WithField("cmd", "find"))
	if err != nil {
		c.Log.WithError(err).Error("opening tree")
		return 1
	}

	cell, err := bt.Find(storage.RootPageNo, uint32(key))
	if err != nil {
		c.Log.WithError(err).Error("key not found")
		return 1
	}

	fmt.Printf("%d\t%s\n", cell.Key, cell.Payload())
	return 0
}
