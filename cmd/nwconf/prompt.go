package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/lc/nwconf/internal/backup"
	"github.com/lc/nwconf/internal/session"
)

// Values of the --backup flag.
const (
	backupAsk = "ask"
	backupYes = "yes"
	backupNo  = "no"
)

var _ session.Prompter = (*terminalPrompter)(nil)

// terminalPrompter answers session prompts on the terminal, or from flags
// when they already hold the answer.
type terminalPrompter struct {
	in        *bufio.Reader
	out       io.Writer
	backup    string
	assumeYes bool
	dir       string
	backups   *backup.Manager
}

func (p *terminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *terminalPrompter) BackupBeforeLoad(kind session.DocKind) session.BackupDecision {
	switch p.backup {
	case backupYes:
		return session.BackupAndLoad
	case backupNo:
		return session.LoadWithoutBackup
	}

	color.New(color.FgHiWhite).Fprintf(p.out, "Back up your settings folder before loading %s? (Y/n/c): ", kind)
	answer, err := p.readLine()
	if err != nil {
		return session.AbortLoad
	}
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return session.BackupAndLoad
	case "n", "no":
		return session.LoadWithoutBackup
	}
	return session.AbortLoad
}

func (p *terminalPrompter) SelectSnapshot(string) (string, bool) {
	snaps, err := p.backups.List(p.dir)
	if err != nil || len(snaps) == 0 {
		color.New(color.FgYellow).Fprintln(p.out, "No backups found next to", p.dir)
		return "", false
	}
	color.New(color.Bold).Fprintln(p.out, "AVAILABLE BACKUPS:")
	for i, s := range snaps {
		color.New(color.FgHiCyan).Fprintf(p.out, "  %2d) ", i+1)
		fmt.Fprintf(p.out, "%s  (%s)\n", s.Name, humanize.Time(s.Created))
	}
	color.New(color.FgHiWhite).Fprint(p.out, "Restore which backup? (number, empty to cancel): ")
	answer, err := p.readLine()
	if err != nil || answer == "" {
		return "", false
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(snaps) {
		color.New(color.FgRed).Fprintf(p.out, "Invalid choice %q\n", answer)
		return "", false
	}
	return snaps[n-1].Path, true
}

func (p *terminalPrompter) ConfirmRestore(snapshot, dir string) bool {
	if p.assumeYes {
		return true
	}
	color.New(color.FgHiRed, color.Bold).Fprint(p.out, "WARNING: ")
	color.New(color.FgYellow).Fprintln(p.out, "This will ERASE your current settings in:")
	color.New(color.FgHiYellow, color.Bold).Fprintf(p.out, "  %s\n", dir)
	color.New(color.FgYellow).Fprintln(p.out, "and replace them with the contents of:")
	color.New(color.FgHiYellow, color.Bold).Fprintf(p.out, "  %s\n", snapshot)
	color.New(color.FgYellow).Fprintln(p.out, "This operation cannot be undone.")
	color.New(color.FgHiWhite).Fprint(p.out, "Are you absolutely sure? (y/yes/n/no): ")

	answer, err := p.readLine()
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
