// cmd/client/cli.go

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/chandan1819/nosql-mcp-server/internal/database"
	"github.com/chzyer/readline"
)

// command pairs a handler with its help line and help category.
type command struct {
	help     string
	handler  func(c *cli, args string) error
	category string
}

type cli struct {
	manager           *database.Manager
	out               io.Writer
	rl                *readline.Instance
	rlConfig          *readline.Config
	commands          map[string]command
	multiWordCommands []string
}

func newCLI(manager *database.Manager, out io.Writer) *cli {
	c := &cli{
		manager: manager,
		out:     out,
	}
	c.commands = c.getCommands()

	var mwCmds []string
	for cmd := range c.commands {
		if strings.Contains(cmd, " ") {
			mwCmds = append(mwCmds, cmd)
		}
	}
	// Longest first so "backup restore" wins over "backup".
	sort.Slice(mwCmds, func(i, j int) bool {
		return len(mwCmds[i]) > len(mwCmds[j])
	})
	c.multiWordCommands = mwCmds

	return c
}

func (c *cli) run(historyFile string) error {
	c.rlConfig = &readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		AutoComplete:    c.getCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	}

	var err error
	c.rl, err = readline.NewEx(c.rlConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer func() { c.rl.Close() }()

	fmt.Fprintln(c.out, colorInfo("Type 'help' for commands, 'exit' to quit."))
	return c.mainLoop()
}

func (c *cli) mainLoop() error {
	for {
		c.rl.SetPrompt(colorPrompt("nosql> "))

		input, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(input) == 0 {
					break
				}
				continue
			} else if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if err := c.execute(input); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintln(c.out, colorErr("Command failed: ", err))
		}
	}
	fmt.Fprintln(c.out, colorInfo("\nExiting client. Goodbye!"))
	return nil
}

// execute runs one input line.
func (c *cli) execute(input string) error {
	cmd, args := c.getCommandAndRawArgs(input)

	handler, found := c.commands[cmd]
	if !found {
		return fmt.Errorf("unknown command %q, type 'help' for commands", cmd)
	}

	startTime := time.Now()
	if err := handler.handler(c, args); err != nil {
		return err
	}
	if cmd != "clear" && cmd != "help" {
		fmt.Fprintln(c.out, colorInfo("Request time: ", time.Since(startTime).Round(time.Millisecond)))
	}
	return nil
}
