package catalog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// RenderUserList formats LIST_USERS's payload. Grounded on the teacher's
// internal/cli/output.PrintTable shape, moved server-side since the client
// is forbidden from doing its own table formatting (spec.md §1 Non-goals).
func RenderUserList(usernames []string) string {
	sorted := append([]string(nil), usernames...)
	sort.Strings(sorted)

	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"USERNAME"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	for _, name := range sorted {
		table.Append([]string{name})
	}
	table.Render()
	return b.String()
}

// RenderFileShort formats VIEW's default (non -l) payload: just filenames.
func RenderFileShort(files []*FileMetadata) string {
	var b strings.Builder
	for _, fm := range files {
		b.WriteString(fm.Filename)
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderFileLong formats VIEW -l's payload: one row per file with owner,
// storage server, size, and access summary.
func RenderFileLong(files []*FileMetadata) string {
	sorted := append([]*FileMetadata(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Filename < sorted[j].Filename })

	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"FILE", "OWNER", "SS", "WORDS", "CHARS", "ACCESS"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	for _, fm := range sorted {
		table.Append([]string{
			fm.Filename,
			fm.Owner,
			fm.SS.String(),
			strconv.Itoa(fm.WordCount),
			strconv.Itoa(fm.CharCount),
			accessSummary(fm),
		})
	}
	table.Render()
	return b.String()
}

func accessSummary(fm *FileMetadata) string {
	if len(fm.AccessList) == 0 {
		return "-"
	}
	parts := make([]string, len(fm.AccessList))
	for i, e := range fm.AccessList {
		parts[i] = e.Username + ":" + string(e.Permission)
	}
	return strings.Join(parts, ",")
}

// RenderInfo formats INFO's payload as a key-value table, grounded on the
// teacher's internal/cli/output.SimpleTable.
func RenderInfo(fm *FileMetadata) string {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(":")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.Append([]string{"filename", fm.Filename})
	table.Append([]string{"owner", fm.Owner})
	table.Append([]string{"storage_server", fm.SS.String()})
	table.Append([]string{"directory", strconv.FormatBool(fm.IsDirectory)})
	table.Append([]string{"words", strconv.Itoa(fm.WordCount)})
	table.Append([]string{"chars", strconv.Itoa(fm.CharCount)})
	table.Append([]string{"last_access", fm.LastAccess.Format("2006-01-02T15:04:05Z07:00")})
	table.Append([]string{"access", accessSummary(fm)})
	table.Append([]string{"annotation", fm.Annotation})
	table.Render()
	return b.String()
}
