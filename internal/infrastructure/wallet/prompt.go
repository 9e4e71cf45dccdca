package wallet

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// TerminalPrompt reads a password from the controlling terminal without echo.
// It fails when stdin is not a terminal.
func TerminalPrompt(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; set wallet.password")
	}
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
