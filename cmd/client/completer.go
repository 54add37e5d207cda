// cmd/client/completer.go

package main

import (
	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
	"github.com/chzyer/readline"
)

func collectionItems() []readline.PrefixCompleterInterface {
	items := make([]readline.PrefixCompleterInterface, 0, len(globalconst.Collections))
	for _, name := range globalconst.Collections {
		items = append(items, readline.PcItem(name))
	}
	return items
}

func (c *cli) getCompleter() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("read", collectionItems()...),
		readline.PcItem("search", collectionItems()...),
		readline.PcItem("count", collectionItems()...),
		readline.PcItem("create", collectionItems()...),
		readline.PcItem("update", collectionItems()...),
		readline.PcItem("delete", collectionItems()...),
		readline.PcItem("tasks",
			readline.PcItem("users"),
		),
		readline.PcItem("summary"),
		readline.PcItem("unassigned", readline.PcItemDynamic(c.statusSuggestions)),
		readline.PcItem("operators"),
		readline.PcItem("seed", readline.PcItem("force")),
		readline.PcItem("backup",
			readline.PcItem("list"),
			readline.PcItemDynamic(c.backupSuggestions),
		),
		readline.PcItem("clear"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func (c *cli) statusSuggestions(line string) []string {
	return globalconst.TaskStatuses
}

// backupSuggestions offers "restore <name>" for every backup on disk.
func (c *cli) backupSuggestions(line string) []string {
	names, err := c.manager.ListBackups()
	if err != nil {
		return nil
	}
	suggestions := make([]string, 0, len(names))
	for _, name := range names {
		suggestions = append(suggestions, "restore "+name)
	}
	return suggestions
}
