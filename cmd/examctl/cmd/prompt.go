package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ask returns value when set, otherwise prompts for it.
func (a *app) ask(value, label, flag string) (string, error) {
	if value != "" {
		return value, nil
	}
	if a.v.GetBool("non-interactive") {
		return "", fmt.Errorf("%s required (--%s)", strings.ToLower(label), flag)
	}
	if stdinIsTerminal() {
		return pterm.DefaultInteractiveTextInput.Show(label)
	}
	return a.readLine(label)
}

// askSecret is ask without echo.
func (a *app) askSecret(value, label, flag string) (string, error) {
	if value != "" {
		return value, nil
	}
	if a.v.GetBool("non-interactive") {
		return "", fmt.Errorf("%s required (--%s)", strings.ToLower(label), flag)
	}
	if stdinIsTerminal() {
		fmt.Fprintf(a.out, "%s: ", label)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return string(raw), nil
	}
	return a.readLine(label)
}

func (a *app) readLine(label string) (string, error) {
	line, err := a.in.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" && err != nil {
		return "", errors.New(strings.ToLower(label) + " required")
	}
	return line, nil
}
