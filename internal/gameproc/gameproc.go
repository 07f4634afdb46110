// Package gameproc reports whether the game client is running. The game
// rewrites its configuration files on exit, so edits saved or restored while
// it runs are likely to be overwritten.
package gameproc

import (
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/lc/nwconf/internal/log"
)

var _ Checker = (*ProcessChecker)(nil)

// Checker is an interface for checking if a process is running.
type Checker interface {
	IsRunning(name string) bool
}

// ProcessChecker matches running executables by case-insensitive prefix.
type ProcessChecker struct {
	// list is swapped out in tests.
	list func() ([]ps.Process, error)
}

// New returns a checker backed by the host process table.
func New() *ProcessChecker {
	return &ProcessChecker{list: ps.Processes}
}

// IsRunning reports whether any executable name starts with name.
// A process table that cannot be read counts as not running.
func (pc *ProcessChecker) IsRunning(name string) bool {
	if name == "" {
		return false
	}
	list := pc.list
	if list == nil {
		list = ps.Processes
	}
	procs, err := list()
	if err != nil {
		log.Debugf("gameproc: listing processes: %v", err)
		return false
	}

	for _, proc := range procs {
		if procName := proc.Executable(); len(procName) >= len(name) {
			if strings.EqualFold(procName[:len(name)], name) {
				return true
			}
		}
	}
	return false
}

// Never is a Checker that always reports false.
type Never struct{}

func (Never) IsRunning(string) bool { return false }
