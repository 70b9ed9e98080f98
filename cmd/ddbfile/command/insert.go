package command

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tinystorage/ddb/internal/storage"
)

// InsertCommand inserts a single (key, payload) row into a B-Tree file.
type InsertCommand struct {
	Log *logrus.Logger
}

func (c *InsertCommand) Help() string {
	return strings.TrimSpace(`
Usage: ddbfile insert <path> <key> <payload>
`)
}

func (c *InsertCommand) Synopsis() string {
	return "Inserts a row under an integer key"
}

func (c *InsertCommand) Run(args []string) int {
	flags := flag.NewFlagSet("insert", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return 1
	}
	rest := flags.Args()
	if len(rest) != 3 {
		fmt.Println(c.Help())
		return 1
	}

	key, err := strconv.ParseUint(rest[1], 10, 32)
	if err != nil {
		c.Log.WithError(err).Error("parsing key")
		return 1
	}

	pager, err := storage.OpenFile(rest[0], 4096, c.Log.WithField("cmd", "insert"))
	if err != nil {
		c.Log.WithError(err).Error("opening file")
		return 1
	}
	defer pager.Close()

	bt, err := storage.Open(pager, c.Log.WithField("cmd", "insert"))
	if err != nil {
		c.Log.WithError(err).Error("opening tree")
		return 1
	}

	if err := bt.InsertInTable(storage.RootPageNo, uint32(key), []byte(rest[2])); err != nil {
		c.Log.WithError(err).Error("inserting row")
		return 1
	}

	fmt.Printf("inserted key %d\n", key)
	return 0
}
