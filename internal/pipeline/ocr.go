package pipeline

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// OCRLine is one recognized line of text with its confidence in [0, 1].
type OCRLine struct {
	Text       string
	Confidence float64
}

// Engine turns an uploaded document into ordered text lines. Real OCR
// backends plug in here; the pipeline only depends on this interface.
type Engine interface {
	Extract(path string) ([]OCRLine, error)
}

// TextEngine is the deterministic placeholder engine: it treats inputs
// as UTF-8 text, flattens ZIP archives member by member (sorted by
// name) and extracts raw content streams from PDFs.
type TextEngine struct {
	logger arbor.ILogger
}

// NewTextEngine returns the placeholder engine.
func NewTextEngine(logger arbor.ILogger) *TextEngine {
	return &TextEngine{logger: logger}
}

// Extract implements Engine.
func (e *TextEngine) Extract(path string) ([]OCRLine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch {
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return e.extractZip(path)
	case bytes.HasPrefix(data, []byte("%PDF")):
		text, err := e.extractPDFText(path)
		if err != nil {
			return nil, err
		}
		return textLines(text), nil
	default:
		return textLines(string(data)), nil
	}
}

func (e *TextEngine) extractZip(path string) ([]OCRLine, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer archive.Close()

	members := make([]*zip.File, 0, len(archive.File))
	for _, member := range archive.File {
		if member.FileInfo().IsDir() {
			continue
		}
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	var lines []OCRLine
	for _, member := range members {
		reader, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive member %s: %w", member.Name, err)
		}
		var buf bytes.Buffer
		_, copyErr := buf.ReadFrom(reader)
		reader.Close()
		if copyErr != nil {
			return nil, fmt.Errorf("failed to read archive member %s: %w", member.Name, copyErr)
		}
		lines = append(lines, textLines(buf.String())...)
	}
	return lines, nil
}

// extractPDFText pulls the content streams out of a PDF. pdfcpu has no
// direct text extraction, so extracted content is treated the same way
// as plain text input.
func (e *TextEngine) extractPDFText(path string) (string, error) {
	outDir, err := os.MkdirTemp("", "diario-pdf-")
	if err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		e.logger.Warn().Err(err).Str("file", path).Msg("PDF content extraction failed")
		return "", fmt.Errorf("failed to extract pdf content from %s: %w", path, err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", fmt.Errorf("failed to list extracted pdf content: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			return "", fmt.Errorf("failed to read extracted pdf content: %w", err)
		}
		builder.Write(data)
		builder.WriteByte('\n')
	}
	return builder.String(), nil
}

// textLines splits text into trimmed non-empty lines with estimated
// confidence.
func textLines(text string) []OCRLine {
	var lines []OCRLine
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lines = append(lines, OCRLine{Text: line, Confidence: estimateConfidence(line)})
	}
	return lines
}

// estimateConfidence returns a deterministic confidence score for the
// placeholder engine: base 0.98, -0.20 for uncertainty markers, -0.02
// when the line carries digits, clamped to [0, 1].
func estimateConfidence(text string) float64 {
	lowered := strings.ToLower(text)
	score := 0.98
	for _, keyword := range []string{"incerta", "aguardando", "§"} {
		if strings.Contains(lowered, keyword) {
			score -= 0.2
			break
		}
	}
	if strings.ContainsAny(text, "0123456789") {
		score -= 0.02
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
