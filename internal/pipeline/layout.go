package pipeline

import (
	"sort"
	"strings"
)

// Layout sections.
const (
	SectionHeader = "header"
	SectionBody   = "body"
)

// LayoutEntry is one OCR line tagged with its position and section.
type LayoutEntry struct {
	Index   int
	Content string
	Section string
}

// segmentKeys are matched in order; the first hit decides the bucket.
var segmentKeys = []string{"orgao", "lista", "tipo"}

// DetectLayout tags lines with their section: the first line is the
// header, everything else body.
func DetectLayout(lines []OCRLine) []LayoutEntry {
	layout := make([]LayoutEntry, 0, len(lines))
	for index, line := range lines {
		section := SectionBody
		if index == 0 {
			section = SectionHeader
		}
		layout = append(layout, LayoutEntry{Index: index, Content: line.Text, Section: section})
	}
	return layout
}

// Segment buckets layout entries by the first matching key token, or
// "body" when none matches.
func Segment(layout []LayoutEntry) map[string][]LayoutEntry {
	segments := make(map[string][]LayoutEntry)
	for _, entry := range layout {
		key := SectionBody
		lowered := strings.ToLower(entry.Content)
		for _, segment := range segmentKeys {
			if strings.Contains(lowered, segment) {
				key = segment
				break
			}
		}
		segments[key] = append(segments[key], entry)
	}
	return segments
}

// MergeSegments restores the original line order across buckets by
// sorting on the stored index.
func MergeSegments(segments map[string][]LayoutEntry) []LayoutEntry {
	var merged []LayoutEntry
	for _, entries := range segments {
		merged = append(merged, entries...)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Index < merged[j].Index })
	return merged
}
