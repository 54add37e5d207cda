// cmd/client/handlers.go

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chandan1819/nosql-mcp-server/internal/response"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
	"github.com/olekukonko/tablewriter"
)

// getCommands defines all available commands, their help, handler, and category.
func (c *cli) getCommands() map[string]command {
	return map[string]command{
		// General
		"help":  {help: "help - Shows this help message", handler: (*cli).handleHelp, category: "General"},
		"exit":  {help: "exit - Exits the client", handler: (*cli).handleExit, category: "General"},
		"clear": {help: "clear - Clears the screen", handler: (*cli).handleClear, category: "General"},

		// Records
		"read":   {help: "read <coll> [filters_json|file:path|-] - Reads records, all when no filter is given", handler: (*cli).handleRead, category: "Records"},
		"search": {help: "search <coll> <query_json|file:path|-> - Searches with and/or/not and field operators", handler: (*cli).handleSearch, category: "Records"},
		"count":  {help: "count <coll> [query_json|file:path] - Counts matching records", handler: (*cli).handleCount, category: "Records"},
		"create": {help: "create <coll> <data_json|file:path|-> - Creates a record", handler: (*cli).handleCreate, category: "Records"},
		"update": {help: "update <coll> <filters_json> <updates_json> - Updates every matching record", handler: (*cli).handleUpdate, category: "Records"},
		"delete": {help: "delete <coll> <filters_json> [soft] - Deletes (or soft deletes) matching records", handler: (*cli).handleDelete, category: "Records"},

		// Tasks
		"tasks":       {help: "tasks <user_id> [status] - Lists a user's tasks", handler: (*cli).handleTasks, category: "Tasks"},
		"tasks users": {help: "tasks users <id,id,...> [status] - Groups tasks by several users", handler: (*cli).handleTasksUsers, category: "Tasks"},
		"summary":     {help: "summary <user_id> - Counts a user's tasks by status and priority", handler: (*cli).handleSummary, category: "Tasks"},
		"unassigned":  {help: "unassigned [status] - Lists tasks without an assignee", handler: (*cli).handleUnassigned, category: "Tasks"},

		// Server Operations
		"operators":      {help: "operators - Shows the supported query operators", handler: (*cli).handleOperators, category: "Server Operations"},
		"seed":           {help: "seed [force] - Loads sample data into empty collections; force resets everything", handler: (*cli).handleSeed, category: "Server Operations"},
		"backup":         {help: "backup - Writes a backup of all collections", handler: (*cli).handleBackup, category: "Server Operations"},
		"backup list":    {help: "backup list - Lists available backups", handler: (*cli).handleBackupList, category: "Server Operations"},
		"backup restore": {help: "backup restore <name> - Replaces all collections with a backup", handler: (*cli).handleBackupRestore, category: "Server Operations"},
	}
}

// result prints the envelope for one operation.
func (c *cli) result(op, msg string, data any, count int, err error, empty any) {
	if err != nil {
		c.printEnvelope(response.Failure(op, err, empty))
		return
	}
	c.printEnvelope(response.Success(op, msg, data, count))
}

func (c *cli) handleHelp(args string) error {
	fmt.Fprintln(c.out, colorInfo("\nNoSQL MCP Client Help"))
	fmt.Fprintln(c.out, "---------------------")
	fmt.Fprintln(c.out, "Collections: users, tasks, products. JSON may be given inline, as file:<path>, or '-' to open $EDITOR.")
	fmt.Fprintln(c.out, "---------------------")

	categories := make(map[string][]string)
	for cmdName, cmdDetails := range c.commands {
		if cmdDetails.category == "" {
			continue
		}
		categories[cmdDetails.category] = append(categories[cmdDetails.category], cmdName)
	}

	categoryNames := make([]string, 0, len(categories))
	for name := range categories {
		categoryNames = append(categoryNames, name)
	}
	sort.Strings(categoryNames)

	for _, category := range categoryNames {
		fmt.Fprintf(c.out, "\n%s%s%s\n", colorOK("== "), colorOK(category), colorOK(" =="))
		table := tablewriter.NewWriter(c.out)
		table.SetHeader([]string{"Command", "Description"})
		table.SetAutoWrapText(false)

		cmds := categories[category]
		sort.Strings(cmds)

		for _, cmd := range cmds {
			table.Append([]string{cmd, c.commands[cmd].help})
		}
		table.Render()
	}
	fmt.Fprintln(c.out, "---------------------")
	return nil
}

func (c *cli) handleExit(args string) error {
	return io.EOF
}

func (c *cli) handleClear(args string) error {
	clearScreen()
	return nil
}

func (c *cli) handleRead(args string) error {
	parts, err := splitArgs(args)
	if err != nil {
		return err
	}
	if len(parts) < 1 || len(parts) > 2 {
		return errors.New("usage: read <coll> [filters_json|file:path|-]")
	}
	var filters map[string]any
	if len(parts) == 2 {
		if filters, err = c.getJSONObject(parts[1]); err != nil {
			return err
		}
	}
	recs, err := c.manager.Read(parts[0], filters)
	c.result("read", fmt.Sprintf("Successfully retrieved %d records from %s", len(recs), parts[0]),
		recs, len(recs), err, []store.Record{})
	return nil
}

func (c *cli) handleSearch(args string) error {
	parts, err := splitArgs(args)
	if err != nil {
		return err
	}
	if len(parts) != 2 {
		return errors.New("usage: search <coll> <query_json|file:path|->")
	}
	expr, err := c.getJSONObject(parts[1])
	if err != nil {
		return err
	}
	recs, err := c.manager.Search(parts[0], expr)
	c.result("search", fmt.Sprintf("Search completed: found %d matching records in %s", len(recs), parts[0]),
		recs, len(recs), err, []store.Record{})
	return nil
}

func (c *cli) handleCount(args string) error {
	parts, err := splitArgs(args)
	if err != nil {
		return err
	}
	if len(parts) < 1 || len(parts) > 2 {
		return errors.New("usage: count <coll> [query_json|file:path]")
	}
	var expr map[string]any
	if len(parts) == 2 {
		if expr, err = c.getJSONObject(parts[1]); err != nil {
			return err
		}
	}
	n, err := c.manager.Count(parts[0], expr)
	c.result("count", fmt.Sprintf("%d matching records in %s", n, parts[0]), nil, n, err, nil)
	return nil
}

func (c *cli) handleCreate(args string) error {
	parts, err := splitArgs(args)
	if err != nil {
		return err
	}
	if len(parts) != 2 {
		return errors.New("usage: create <coll> <data_json|file:path|->")
	}
	data, err := c.getJSONObject(parts[1])
	if err != nil {
		return err
	}
	rec, err := c.manager.Create(parts[0], data)
	c.result("create", fmt.Sprintf("Record created successfully in %s", parts[0]), rec, 1, err, nil)
	return nil
}

func (c *cli) handleUpdate(args string) error {
	parts, err := splitArgs(args)
	if err != nil {
		return err
	}
	if len(parts) != 3 {
		return errors.New("usage: update <coll> <filters_json> <updates_json>")
	}
	filters, err := c.getJSONObject(parts[1])
	if err != nil {
		return err
	}
	updates, err := c.getJSONObject(parts[2])
	if err != nil {
		return err
	}
	recs, err := c.manager.Update(parts[0], filters, updates)
	c.result("update", fmt.Sprintf("Successfully updated %d records in %s", len(recs), parts[0]),
		recs, len(recs), err, []store.Record{})
	return nil
}

func (c *cli) handleDelete(args string) error {
	parts, err := splitArgs(args)
	if err != nil {
		return err
	}
	if len(parts) < 2 || len(parts) > 3 {
		return errors.New("usage: delete <coll> <filters_json> [soft]")
	}
	soft := false
	if len(parts) == 3 {
		if parts[2] != "soft" {
			return fmt.Errorf("unexpected argument %q, expected 'soft'", parts[2])
		}
		soft = true
	}
	filters, err := c.getJSONObject(parts[1])
	if err != nil {
		return err
	}
	recs, err := c.manager.Delete(parts[0], filters, soft)
	verb := "deleted"
	if soft {
		verb = "soft deleted"
	}
	c.result("delete", fmt.Sprintf("Successfully %s %d records from %s", verb, len(recs), parts[0]),
		recs, len(recs), err, []store.Record{})
	return nil
}

func parseUserID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}

func (c *cli) handleTasks(args string) error {
	parts := strings.Fields(args)
	if len(parts) < 1 || len(parts) > 2 {
		return errors.New("usage: tasks <user_id> [status]")
	}
	userID, err := parseUserID(parts[0])
	if err != nil {
		return err
	}
	status := ""
	if len(parts) == 2 {
		status = parts[1]
	}
	tasks, exists, err := c.manager.TasksByUser(userID, status)
	msg := fmt.Sprintf("Successfully retrieved %d tasks for user %d", len(tasks), userID)
	if err == nil && !exists {
		msg = fmt.Sprintf("User with ID %d does not exist", userID)
	}
	c.result("get_tasks_by_user", msg, tasks, len(tasks), err, []store.Record{})
	return nil
}

func (c *cli) handleTasksUsers(args string) error {
	parts := strings.Fields(args)
	if len(parts) < 1 || len(parts) > 2 {
		return errors.New("usage: tasks users <id,id,...> [status]")
	}
	ids, err := parseUserIDs(parts[0])
	if err != nil {
		return err
	}
	status := ""
	if len(parts) == 2 {
		status = parts[1]
	}
	res, err := c.manager.TasksByUsers(ids, status)
	if err != nil {
		c.result("get_tasks_by_users", "", nil, 0, err, nil)
		return nil
	}
	for _, id := range res.UserIDs {
		fmt.Fprintln(c.out, colorOK(fmt.Sprintf("== user %d ==", id)))
		c.printEnvelope(response.Success("get_tasks_by_users",
			fmt.Sprintf("%d tasks", len(res.TasksByUser[id])), res.TasksByUser[id], len(res.TasksByUser[id])))
	}
	fmt.Fprintln(c.out, colorInfo("Total tasks: ", res.TotalTasks))
	return nil
}

func (c *cli) handleSummary(args string) error {
	parts := strings.Fields(args)
	if len(parts) != 1 {
		return errors.New("usage: summary <user_id>")
	}
	userID, err := parseUserID(parts[0])
	if err != nil {
		return err
	}
	summary, err := c.manager.UserTaskSummary(userID)
	msg := fmt.Sprintf("Successfully generated task summary for user %d", userID)
	if err == nil && !summary.UserExists {
		msg = fmt.Sprintf("User with ID %d does not exist", userID)
	}
	c.result("get_user_task_summary", msg, summary, summary.TotalTasks, err, nil)
	return nil
}

func (c *cli) handleUnassigned(args string) error {
	parts := strings.Fields(args)
	if len(parts) > 1 {
		return errors.New("usage: unassigned [status]")
	}
	status := ""
	if len(parts) == 1 {
		status = parts[0]
	}
	tasks, err := c.manager.UnassignedTasks(status)
	c.result("get_unassigned_tasks", fmt.Sprintf("Successfully retrieved %d unassigned tasks", len(tasks)),
		tasks, len(tasks), err, []store.Record{})
	return nil
}

func (c *cli) handleOperators(args string) error {
	caps := c.manager.Capabilities()
	c.result("get_query_capabilities", "Supported query operators", caps.Operators, len(caps.Operators), nil, nil)
	fmt.Fprintln(c.out, colorInfo("Logical operators: ", strings.Join(caps.LogicalOperators, ", ")))
	return nil
}

func (c *cli) handleSeed(args string) error {
	force := false
	switch strings.TrimSpace(args) {
	case "":
	case "force":
		force = true
	default:
		return errors.New("usage: seed [force]")
	}
	counts, err := c.manager.SeedSampleData(force)
	total := 0
	for _, n := range counts {
		total += n
	}
	c.result("seed", fmt.Sprintf("Inserted %d sample records", total), counts, total, err, nil)
	return nil
}

func (c *cli) handleBackup(args string) error {
	if strings.TrimSpace(args) != "" {
		return errors.New("usage: backup | backup list | backup restore <name>")
	}
	name, err := c.manager.Backup()
	c.result("backup", "Backup written", map[string]any{"name": name}, 1, err, nil)
	return nil
}

func (c *cli) handleBackupList(args string) error {
	names, err := c.manager.ListBackups()
	c.result("backup list", fmt.Sprintf("%d backups available", len(names)), names, len(names), err, []string{})
	if err == nil {
		if status, err := c.manager.BackupStatus(); err == nil {
			fmt.Fprintln(c.out, colorInfo(status))
		}
	}
	return nil
}

func (c *cli) handleBackupRestore(args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return errors.New("usage: backup restore <name>")
	}
	err := c.manager.RestoreBackup(name)
	c.result("restore", fmt.Sprintf("Restored backup %s", name), nil, 0, err, nil)
	return nil
}
