package cli

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword so tests can feed
// secrets without a real terminal.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// readLine prints a prompt and reads one line, trailing newline trimmed.
func (c *CLI) readLine(prompt string) (string, error) {
	fmt.Fprint(c.Out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readSecret prints a prompt and reads a line without echoing it.
func (c *CLI) readSecret(prompt string) (string, error) {
	fmt.Fprint(c.Out, prompt)
	raw, err := readPassword()
	fmt.Fprintln(c.Out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
