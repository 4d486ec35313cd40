// Package cerrors formats diagnostics with source context, following
// the same line/column/caret presentation go-dws's internal/errors
// package uses for DWScript.
package cerrors

import (
	"fmt"
	"strings"

	"github.com/enthyp/tc/internal/lexer"
)

// Kind classifies a Diagnostic per §7 of the specification.
type Kind int

const (
	Syntax Kind = iota
	Resolution
	TypeError
	Runtime
	OptimizerInternal
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case Resolution:
		return "resolution error"
	case TypeError:
		return "type error"
	case Runtime:
		return "runtime error"
	case OptimizerInternal:
		return "optimizer error"
	default:
		return "error"
	}
}

// Diagnostic is a single reported problem with position and source context.
type Diagnostic struct {
	Kind    Kind
	Message string
	Pos     lexer.Position
	Source  string
	File    string
}

// New creates a Diagnostic.
func New(kind Kind, pos lexer.Position, message, source, file string) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: message, Pos: pos, Source: source, File: file}
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return d.Format(false)
}

// Format renders the diagnostic with a source line and caret indicator.
// If color is true, ANSI escapes highlight the caret and message.
func (d *Diagnostic) Format(color bool) string {
	var sb strings.Builder

	if d.File != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d\n", d.Kind, d.File, d.Pos.Line, d.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "%s at %d:%d\n", d.Kind, d.Pos.Line, d.Pos.Column)
	}

	if line := d.sourceLine(d.Pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+d.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func (d *Diagnostic) sourceLine(line int) string {
	if d.Source == "" {
		return ""
	}
	lines := strings.Split(d.Source, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// FormatAll formats a list of diagnostics for display to the user.
func FormatAll(diags []*Diagnostic, color bool) string {
	if len(diags) == 0 {
		return ""
	}
	if len(diags) == 1 {
		return diags[0].Format(color)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s):\n\n", len(diags))
	for i, d := range diags {
		fmt.Fprintf(&sb, "[%d of %d]\n", i+1, len(diags))
		sb.WriteString(d.Format(color))
		if i < len(diags)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
