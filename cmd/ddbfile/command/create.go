package command

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tinystorage/ddb/internal/storage"
)

// CreateCommand initializes a new, empty B-Tree file. With no path
// argument it generates one under DataDir, named with a random uuid, so
// callers scripting throwaway databases don't have to invent a name.
type CreateCommand struct {
	Log     *logrus.Logger
	DataDir string
}

func (c *CreateCommand) Help() string {
	return strings.TrimSpace(`
Usage: ddbfile create [options] [path]

If path is omitted, a new file is created under the configured data
directory with a generated name.

Options:

  -page-size=4096  Page size in bytes for a newly created file
`)
}

func (c *CreateCommand) Synopsis() string {
	return "Creates a new, empty B-Tree file"
}

func (c *CreateCommand) Run(args []string) int {
	var pageSize int
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	flags.IntVar(&pageSize, "page-size", 4096, "page size in bytes")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	rest := flags.Args()
	if len(rest) > 1 {
		fmt.Println(c.Help())
		return 1
	}

	path := ""
	if len(rest) == 1 {
		path = rest[0]
	} else {
		path = filepath.Join(c.DataDir, uuid.New().String()+".ddb")
	}

	pager, err := storage.OpenFile(path, uint16(pageSize), c.Log.WithField("cmd", "create"))
	if err != nil {
		c.Log.WithError(err).Error("opening file")
		return 1
	}
	defer pager.Close()

	if _, err := storage.Open(pager, c.Log.WithField("cmd", "create")); err != nil {
		c.Log.WithError(err).Error("initializing tree")
		return 1
	}

	fmt.Printf("created %s\n", path)
	return 0
}
