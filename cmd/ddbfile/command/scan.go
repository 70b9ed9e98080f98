package command

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tinystorage/ddb/internal/storage"
)

// ScanCommand walks every row in the file in key order.
type ScanCommand struct {
	Log *logrus.Logger
}

func (c *ScanCommand) Help() string {
	return strings.TrimSpace(`
Usage: ddbfile scan <path>
`)
}

func (c *ScanCommand) Synopsis() string {
	return "Prints every row in key order"
}

func (c *ScanCommand) Run(args []string) int {
	flags := flag.NewFlagSet("scan", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return 1
	}
	rest := flags.Args()
	if len(rest) != 1 {
		fmt.Println(c.Help())
		return 1
	}

	pager, err := storage.OpenFile(rest[0], 4096, c.Log.WithField("cmd", "scan"))
	if err != nil {
		c.Log.WithError(err).Error("opening file")
		return 1
	}
	defer pager.Close()

	bt, err := storage.Open(pager, c.Log.WithField("cmd", "scan"))
	if err != nil {
		c.Log.WithError(err).Error("opening tree")
		return 1
	}

	cursor := storage.NewCursor(bt, storage.RootPageNo)
	if err := cursor.Rewind(); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0
		}
		c.Log.WithError(err).Error("rewinding cursor")
		return 1
	}

	for {
		cell, err := cursor.Current()
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return 0
			}
			c.Log.WithError(err).Error("reading row")
			return 1
		}
		fmt.Printf("%d\t%s\n", cell.Key, cell.Payload())

		if err := cursor.Next(); err != nil {
			if errors.Is(err, storage.ErrCantMove) {
				break
			}
			c.Log.WithError(err).Error("advancing cursor")
			return 1
		}
	}
	return 0
}
