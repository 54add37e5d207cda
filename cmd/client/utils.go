// cmd/client/utils.go

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/chandan1819/nosql-mcp-server/internal/response"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Color definitions for the interface
var (
	colorOK     = color.New(color.FgGreen, color.Bold).SprintFunc()
	colorErr    = color.New(color.FgRed, color.Bold).SprintFunc()
	colorPrompt = color.New(color.FgMagenta).SprintFunc()
	colorInfo   = color.New(color.FgBlue).SprintFunc()
)

// getCommandAndRawArgs parses user input into a command and its arguments.
func (c *cli) getCommandAndRawArgs(input string) (string, string) {
	for _, mwCmd := range c.multiWordCommands {
		if strings.HasPrefix(input, mwCmd+" ") || input == mwCmd {
			return mwCmd, strings.TrimSpace(input[len(mwCmd):])
		}
	}

	parts := strings.SplitN(input, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

// splitArgs splits an argument line into words and JSON values. A token that
// starts with '{' or '[' runs to its matching bracket, so JSON may contain spaces.
func splitArgs(input string) ([]string, error) {
	var tokens []string
	i := 0
	for i < len(input) {
		switch ch := input[i]; {
		case ch == ' ' || ch == '\t':
			i++
		case ch == '{' || ch == '[':
			end, err := matchBracket(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, input[i:end+1])
			i = end + 1
		default:
			start := i
			for i < len(input) && input[i] != ' ' && input[i] != '\t' {
				i++
			}
			tokens = append(tokens, input[start:i])
		}
	}
	return tokens, nil
}

// matchBracket returns the index of the bracket closing the one at start.
func matchBracket(s string, start int) (int, error) {
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced JSON starting at %q", truncate(s[start:], 20))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// parseUserIDs accepts "1,2,3" or a JSON array.
func parseUserIDs(arg string) ([]int64, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "[") {
		var ids []int64
		if err := json.Unmarshal([]byte(arg), &ids); err != nil {
			return nil, fmt.Errorf("invalid user id list: %w", err)
		}
		return ids, nil
	}
	var ids []int64
	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one user id is required")
	}
	return ids, nil
}

// clearScreen clears the terminal screen.
func clearScreen() {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "cls")
	default:
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	_ = cmd.Run()
}

func (c *cli) getJSONFromEditor() ([]byte, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		if runtime.GOOS == "windows" {
			editor = "notepad"
		} else {
			editor = "vim"
		}
	}

	tmpfile, err := os.CreateTemp("", "nosql-mcp-*.json")
	if err != nil {
		return nil, fmt.Errorf("could not create temp file: %w", err)
	}
	tmpfile.Close()
	defer os.Remove(tmpfile.Name())

	// Close readline to give terminal control to the editor
	if c.rl != nil {
		c.rl.Close()
	}

	fmt.Fprintln(c.out, colorInfo("Opening editor (", editor, ") for JSON input. Save and close the file to continue..."))

	cmd := exec.Command(editor, tmpfile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()

	// Re-initialize readline after the editor is closed.
	if c.rlConfig != nil {
		c.rl, err = readline.NewEx(c.rlConfig)
		if err != nil {
			return nil, fmt.Errorf("fatal: could not re-initialize readline: %w", err)
		}
	}

	if runErr != nil {
		return nil, fmt.Errorf("error running editor: %w", runErr)
	}

	return os.ReadFile(tmpfile.Name())
}

func (c *cli) getJSONPayload(payload string) ([]byte, error) {
	if payload == "-" {
		return c.getJSONFromEditor()
	}
	if strings.HasPrefix(payload, "file:") {
		filePath := strings.TrimPrefix(payload, "file:")
		return os.ReadFile(filePath)
	}
	return []byte(payload), nil
}

// getJSONObject resolves a payload argument and decodes it as a JSON object.
func (c *cli) getJSONObject(payload string) (map[string]any, error) {
	data, err := c.getJSONPayload(payload)
	if err != nil {
		return nil, err
	}
	rec, err := store.DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	return rec, nil
}

// printEnvelope renders the status of an operation followed by its data.
func (c *cli) printEnvelope(env response.Envelope) {
	status := colorOK("OK")
	if !env.Success {
		status = colorErr("ERROR")
	}
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Status", "Operation", "Message", "Count"})
	table.SetAutoWrapText(false)
	table.Append([]string{status, env.Operation, env.Message, strconv.Itoa(env.Count)})
	table.Render()

	if env.Error != nil {
		fmt.Fprintln(c.out, colorErr(env.ErrorCode, ": ", *env.Error))
	}

	if env.Data == nil {
		fmt.Fprintln(c.out, "---")
		return
	}
	dataBytes, err := json.Marshal(env.Data)
	if err != nil {
		fmt.Fprintln(c.out, colorErr("Could not encode result: ", err))
		return
	}
	if err := printDynamicTable(c.out, dataBytes); err != nil {
		fmt.Fprintln(c.out, colorErr("Could not render table, falling back to JSON view."))
		printJSON(c.out, dataBytes)
	}
	fmt.Fprintln(c.out, "---")
}

func printJSON(w io.Writer, dataBytes []byte) {
	var v any
	if err := json.Unmarshal(dataBytes, &v); err != nil {
		fmt.Fprintf(w, "  %s %s\n", colorInfo("Data (Raw):"), string(dataBytes))
		return
	}
	pretty, err := json.MarshalIndent(v, "  ", "  ")
	if err != nil {
		fmt.Fprintf(w, "  %s %s\n", colorInfo("Data (Raw):"), string(dataBytes))
		return
	}
	fmt.Fprintf(w, "  %s\n  %s\n", colorInfo("Data:"), string(pretty))
}

// printDynamicTable attempts to render JSON data as a formatted table.
func printDynamicTable(w io.Writer, dataBytes []byte) error {
	// Attempt 1: an array of objects (multi-column table).
	var objectArrayResults []map[string]any
	if err := json.Unmarshal(dataBytes, &objectArrayResults); err == nil {
		if len(objectArrayResults) == 0 {
			fmt.Fprintln(w, colorInfo("(no records)"))
			return nil
		}
		headerSet := make(map[string]bool)
		for _, doc := range objectArrayResults {
			for key := range doc {
				headerSet[key] = true
			}
		}
		headers := orderedHeaders(headerSet)
		table := tablewriter.NewWriter(w)
		table.SetHeader(headers)
		table.SetAutoWrapText(false)
		for _, doc := range objectArrayResults {
			row := make([]string, len(headers))
			for i, header := range headers {
				if val, ok := doc[header]; ok {
					row[i] = cellString(val)
				} else {
					row[i] = "(n/a)"
				}
			}
			table.Append(row)
		}
		table.Render()
		return nil
	}

	// Attempt 2: a single object (Key-Value table).
	var singleObjectResult map[string]any
	if err := json.Unmarshal(dataBytes, &singleObjectResult); err == nil {
		if len(singleObjectResult) == 0 {
			return nil
		}
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Key", "Value"})
		table.SetAutoWrapText(false)

		keys := make([]string, 0, len(singleObjectResult))
		for k := range singleObjectResult {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			table.Append([]string{k, cellString(singleObjectResult[k])})
		}
		table.Render()
		return nil
	}

	// Attempt 3: an array of simple values (single-column table).
	var simpleArrayResults []any
	if err := json.Unmarshal(dataBytes, &simpleArrayResults); err == nil {
		if len(simpleArrayResults) == 0 {
			return nil
		}
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Value"})
		for _, item := range simpleArrayResults {
			table.Append([]string{cellString(item)})
		}
		table.Render()
		return nil
	}

	return errors.New("data is not tabular")
}

// orderedHeaders puts id first and created_at last, the rest alphabetically.
func orderedHeaders(set map[string]bool) []string {
	headers := make([]string, 0, len(set))
	for key := range set {
		if key != "id" && key != "created_at" {
			headers = append(headers, key)
		}
	}
	sort.Strings(headers)
	if set["id"] {
		headers = append([]string{"id"}, headers...)
	}
	if set["created_at"] {
		headers = append(headers, "created_at")
	}
	return headers
}

func cellString(val any) string {
	switch v := val.(type) {
	case map[string]any, []any:
		jsonVal, _ := json.MarshalIndent(v, "", "  ")
		return string(jsonVal)
	case nil:
		return "(nil)"
	default:
		return fmt.Sprintf("%v", v)
	}
}
