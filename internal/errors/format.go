package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ANSI escape sequences.
const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

// Colors controls whether Format emits ANSI escapes.
var Colors = true

func paint(code, text string) string {
	if !Colors {
		return text
	}
	return code + text + ansiReset
}

// Format renders the error for a terminal.
func (e *CodedError) Format() string {
	var b strings.Builder

	b.WriteString(paint(ansiRed+ansiBold, "ERROR"))
	if e.Code != "" {
		b.WriteString(paint(ansiBold, " "+e.Code))
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", paint(ansiCyan, e.Location.String()))
		writeContext(&b, e.Location, e.Context, e.ContextStart)
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 72) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n", paint(ansiCyan, "Hint: "), e.Suggestion)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeContext(b *strings.Builder, loc *Location, lines []string, first int) {
	if len(lines) == 0 {
		return
	}
	for i, line := range lines {
		n := first + i
		marker := "  "
		if n == loc.Line {
			marker = paint(ansiRed, "→ ")
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", marker, n, paint(ansiGray, " │ "), line)
		if n == loc.Line && loc.Column > 0 {
			fmt.Fprintf(b, "        %s%s%s\n", paint(ansiGray, "│ "), strings.Repeat(" ", loc.Column-1), paint(ansiRed, "^"))
		}
	}
	b.WriteString("\n")
}

// FormatCompact returns "file:line: CODE: message".
func (e *CodedError) FormatCompact() string {
	var parts []string
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	msg := e.Message
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	parts = append(parts, msg)
	return strings.Join(parts, ": ")
}

type jsonError struct {
	Code       string    `json:"code,omitempty"`
	Category   Category  `json:"category,omitempty"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Cause      string    `json:"cause,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// FormatJSON returns the error as a JSON object.
func (e *CodedError) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

func wrapText(text string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
	)
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// Fprint writes err to w, formatted when it is a CodedError.
func Fprint(w io.Writer, err error) {
	if err == nil {
		return
	}
	if ce, ok := err.(*CodedError); ok {
		fmt.Fprint(w, ce.Format())
		return
	}
	fmt.Fprintf(w, "%s %s\n", paint(ansiRed+ansiBold, "ERROR:"), err)
}

// PrintError prints err to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}
