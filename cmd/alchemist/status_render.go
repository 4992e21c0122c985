package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"alchemist/internal/domain"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func statusLabel(status domain.DiagnosticStatus, colorize bool) string {
	var label, color string
	switch status {
	case domain.DiagnosticStatusPass:
		label, color = "OK", ansiGreen
	case domain.DiagnosticStatusWarn:
		label, color = "WARN", ansiYellow
	default:
		label, color = "FAIL", ansiRed
	}
	if !colorize {
		return label
	}
	return color + label + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
