package serverpipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
)

// ResolvePassword finds a password (possibly empty) that unlocks the PDF
// at path, grounded on server.py's BaseFile.sanitize/_read_password loop:
// try the empty password first, then an operator-supplied password file
// (the headless equivalent of the reference's zenity prompt). Gives up
// with a PasswordError if neither works.
func ResolvePassword(ctx context.Context, path, passwordFile string) (string, error) {
	if _, err := PageCount(ctx, path, ""); err == nil {
		return "", nil
	}

	if passwordFile != "" {
		raw, err := os.ReadFile(passwordFile)
		if err == nil {
			pw := strings.TrimSpace(string(raw))
			if _, err := PageCount(ctx, path, pw); err == nil {
				return pw, nil
			}
		}
	}

	return "", sanitizeerr.New(sanitizeerr.PasswordError, path, 0,
		fmt.Errorf("no working password found"))
}

// PageCount reports the PDF's page count, trying pdfcpu's pure-Go fast
// path first (only viable when no password is required) and falling
// back to shelling out to pdfinfo with the given password otherwise.
func PageCount(ctx context.Context, path, password string) (int, error) {
	if password == "" {
		if n, err := api.PageCountFile(path); err == nil {
			return n, nil
		}
	}
	return pageCountViaPdfinfo(ctx, path, password)
}

func pageCountViaPdfinfo(ctx context.Context, path, password string) (int, error) {
	cmd := exec.CommandContext(ctx, "pdfinfo", "-opw", password, "-upw", password, path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if strings.Contains(stderr.String(), "Incorrect password") {
			return 0, sanitizeerr.New(sanitizeerr.PasswordError, path, 0,
				fmt.Errorf("pdfinfo: incorrect password"))
		}
		return 0, sanitizeerr.New(sanitizeerr.ConversionFailed, path, 0,
			fmt.Errorf("pdfinfo: %w: %s", err, stderr.String()))
	}

	for _, line := range strings.Split(stdout.String(), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, sanitizeerr.New(sanitizeerr.ConversionFailed, path, 0,
				fmt.Errorf("unparsable pdfinfo Pages line %q: %w", line, err))
		}
		return n, nil
	}

	return 0, sanitizeerr.New(sanitizeerr.ConversionFailed, path, 0,
		fmt.Errorf("pdfinfo output had no Pages line"))
}

// FormatPasswordPrompt builds the operator-facing prompt text for a
// document that needs a password not already supplied via
// --password-file. The server pipeline itself never displays it.
func FormatPasswordPrompt(filename string) string {
	caser := cases.Title(language.English)
	return fmt.Sprintf("The document %q is password protected. %s",
		filename, caser.String("please provide the password"))
}
