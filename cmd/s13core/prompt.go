package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// prompter asks questions on the terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask reads one line. Required questions are repeated until answered; the
// input running out is an error for them.
func (p *prompter) ask(question string, required bool) (string, error) {
	label := question + ": "
	if required {
		label = question + " (required): "
	}
	for {
		fmt.Fprint(p.out, label)
		line, err := p.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" || !required {
			if err == io.EOF {
				err = nil
			}
			return line, err
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", question, err)
		}
	}
}

// yes asks a yes/no question.
func (p *prompter) yes(question string) (bool, error) {
	answer, err := p.ask(question+" [yes/no]", true)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(answer), "y"), nil
}

// value returns flag when set and asks otherwise.
func (p *prompter) value(flag, question string, required bool) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return p.ask(question, required)
}
