package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Writer prints formatted entries
type Writer struct {
	out    io.Writer
	format string
}

// NewWriter creates a Writer. Unknown formats fall back to text.
func NewWriter(out io.Writer, format string) *Writer {
	if format != FormatJSON {
		format = FormatText
	}
	return &Writer{out: out, format: format}
}

// Write prints entries in the writer's format
func (w *Writer) Write(entries []domain.StreamEntry) error {
	if w.format == FormatJSON {
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if entries == nil {
			entries = []domain.StreamEntry{}
		}
		return enc.Encode(map[string]any{"streams": entries})
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w.out, "No streams found")
		return err
	}
	for i, e := range entries {
		name := strings.ReplaceAll(e.Name, "\n", " ")
		body := strings.ReplaceAll(e.Title, "\n", "\n   ")
		if _, err := fmt.Fprintf(w.out, "%d. [%s] %s\n   %s\n", i+1, name, body, e.URL); err != nil {
			return err
		}
	}
	return nil
}
