package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers line by line, hiding secrets when attached to a
// terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal file descriptor, or -1 when input is not a terminal.
	fd int
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &prompter{in: bufio.NewReader(in), out: out, fd: fd}
}

// ask prints label and returns the trimmed answer, or current when the
// answer is empty.
func (p *prompter) ask(label, current string, secret bool) (string, error) {
	switch {
	case current == "":
		fmt.Fprintf(p.out, "%s: ", label)
	case secret:
		fmt.Fprintf(p.out, "%s [keep stored value]: ", label)
	default:
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	}

	var (
		answer string
		err    error
	)
	if secret && p.fd >= 0 {
		var b []byte
		b, err = term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		answer = string(b)
	} else {
		answer, err = p.in.ReadString('\n')
		if err == io.EOF && answer != "" {
			err = nil
		}
	}
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return current, nil
	}
	return answer, nil
}
