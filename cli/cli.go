package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"btree/btree"
	"btree/store"

	"github.com/cockroachdb/errors"
)

type Cli struct {
	scanner *bufio.Scanner
	out     io.Writer
	store   *store.Store
}

func NewCli(s *bufio.Scanner, out io.Writer, st *store.Store) *Cli {
	return &Cli{scanner: s, out: out, store: st}
}

// Start reads commands until EXIT or the end of input.
func (c *Cli) Start() {
	c.printHelp()
	c.printPrompt()
	for c.scanner.Scan() {
		if !c.processInput(c.scanner.Text()) {
			return
		}
		c.printPrompt()
	}
}

func (c *Cli) printHelp() {
	fmt.Fprint(c.out, `
B-Tree CLI

Available Commands:
  SET <key> <val> Insert a key-value pair into the B-Tree
  DEL <key>       Remove a key-value pair from the B-Tree
  GET <key>       Retrieve the value for key from the B-Tree
  DUMP            Print every key-value pair in key order
  TREE            Draw the B-Tree level by level
  STATS           Print the number of keys, height and degree
  CHECKPOINT      Write a checkpoint and empty the journal
  HELP            Show this message
  EXIT            Terminate this session
`+"\n")
}

func (c *Cli) printPrompt() {
	fmt.Fprint(c.out, "> ")
}

// processInput runs one command line and reports whether the session goes on.
func (c *Cli) processInput(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return true
	}
	command := strings.ToLower(fields[0])
	switch command {
	default:
		fmt.Fprintf(c.out, "Unknown command \"%s\"\n", command)
	case "set":
		c.processSetCommand(fields[1:])
	case "del":
		c.processDeleteCommand(fields[1:])
	case "get":
		c.processGetCommand(fields[1:])
	case "dump":
		c.processDumpCommand()
	case "tree":
		c.printTree()
	case "stats":
		c.processStatsCommand()
	case "checkpoint":
		c.processCheckpointCommand()
	case "help":
		c.printHelp()
	case "exit":
		return false
	}
	return true
}

func (c *Cli) processSetCommand(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: SET <key> <value>")
		return
	}
	if err := c.store.Set(args[0], args[1]); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	c.printTree()
}

func (c *Cli) processDeleteCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: DEL <key>")
		return
	}
	err := c.store.Delete(args[0])
	switch {
	case errors.Is(err, btree.ErrEmptyTree):
		fmt.Fprintln(c.out, "The tree is empty.")
		return
	case errors.Is(err, btree.ErrKeyNotFound):
		fmt.Fprintln(c.out, "Key not found.")
		return
	case err != nil:
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	c.printTree()
}

func (c *Cli) processGetCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: GET <key>")
		return
	}
	val, ok := c.store.Get(args[0])
	if !ok {
		fmt.Fprintln(c.out, "Key not found.")
		return
	}
	fmt.Fprintln(c.out, val)
}

func (c *Cli) processDumpCommand() {
	for _, p := range c.store.Pairs() {
		fmt.Fprintf(c.out, "%s:%s\n", p.Key, p.Value)
	}
}

func (c *Cli) processStatsCommand() {
	st := c.store.Stats()
	fmt.Fprintf(c.out, "keys=%d height=%d degree=%d\n", st.Keys, st.Height, st.Degree)
}

func (c *Cli) processCheckpointCommand() {
	if err := c.store.Checkpoint(); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "Checkpoint written.")
}

func (c *Cli) printTree() {
	c.store.View(func(tree *btree.Btree) {
		v := &btree.Visualizer{Tree: tree}
		fmt.Fprintln(c.out, v.Visualize())
	})
}
