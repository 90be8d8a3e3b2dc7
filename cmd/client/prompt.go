package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// prompter asks for values the user left off a command line.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// ask prints label and returns the next trimmed input line. It returns ""
// when input is exhausted.
func (p *prompter) ask(label string) string {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(p.scanner.Text())
}

// arg returns args[i] when present, otherwise asks for it.
func (p *prompter) arg(args []string, i int, label string) string {
	if i < len(args) {
		return args[i]
	}
	return p.ask(label)
}
