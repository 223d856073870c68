package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

type statusStyle struct {
	label string
	color string
}

var statusStyles = map[statusKind]statusStyle{
	statusInfo:  {label: "INFO", color: ansiBlue},
	statusOK:    {label: "OK", color: ansiGreen},
	statusWarn:  {label: "WARN", color: ansiYellow},
	statusError: {label: "ERROR", color: ansiRed},
}

// renderStatusLine formats "  label:  [KIND] message", optionally wrapped in
// the kind's ANSI colour.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	status := "[" + style.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// humanLabel turns snake_case values such as invalid_id into "Invalid ID".
func humanLabel(value string) string {
	label := cases.Title(language.Und).String(strings.ReplaceAll(value, "_", " "))
	words := strings.Fields(label)
	for i, word := range words {
		if word == "Id" {
			words[i] = "ID"
		}
	}
	return strings.Join(words, " ")
}
