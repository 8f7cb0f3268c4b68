package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// OutputFormat selects how list results are rendered
type OutputFormat string

const (
	MarkdownFormat OutputFormat = "md"
	JsonFormat     OutputFormat = "json"
)

func printMarkdownTable(header []string, content [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range content {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if l := utf8.RuneCountInString(cell); l > widths[i] {
				widths[i] = l
			}
		}
	}

	printRow := func(cells []string) {
		var sb strings.Builder
		sb.WriteString("|")
		for i := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(" " + suffixToLength(cell, widths[i]) + " |")
		}
		fmt.Println(sb.String())
	}

	printRow(header)

	var sep strings.Builder
	sep.WriteString("|")
	for i := range header {
		sep.WriteString(strings.Repeat("-", widths[i]+2) + "|")
	}
	fmt.Println(sep.String())

	for _, row := range content {
		printRow(row)
	}
}

func printJsonDataTable(item string, header []string, content [][]string) {
	// Create slice of maps for proper JSON structure
	items := make([]map[string]string, 0, len(content))

	for _, row := range content {
		rowData := make(map[string]string)
		// Handle cases where row length doesn't match header length
		for i, headerName := range header {
			if i < len(row) {
				rowData[headerName] = row[i]
			} else {
				rowData[headerName] = ""
			}
		}
		items = append(items, rowData)
	}

	// Create the final structure
	result := map[string][]map[string]string{
		item: items,
	}

	// Use proper JSON marshaling with indentation to handle escaping
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		return
	}

	fmt.Println(string(jsonData))
}

// suffixToLength pads a string with spaces up to the given rune count.
// Strings already at or beyond the length are returned unchanged.
func suffixToLength(s string, length int) string {
	if pad := length - utf8.RuneCountInString(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
