package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// promptPassphrase asks for the backup passphrase on the terminal without
// echo.
func promptPassphrase(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "Backup passphrase: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if len(pw) == 0 {
		return "", errors.New("empty backup passphrase")
	}
	return string(pw), nil
}
