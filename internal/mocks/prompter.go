package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/lc/nwconf/internal/session"
)

var _ session.Prompter = (*MockPrompter)(nil)

// MockPrompter is a testify mock of session.Prompter.
type MockPrompter struct {
	mock.Mock
}

// BackupBeforeLoad mocks the BackupBeforeLoad method.
func (m *MockPrompter) BackupBeforeLoad(kind session.DocKind) session.BackupDecision {
	args := m.Called(kind)
	return args.Get(0).(session.BackupDecision)
}

// SelectSnapshot mocks the SelectSnapshot method.
func (m *MockPrompter) SelectSnapshot(start string) (string, bool) {
	args := m.Called(start)
	return args.String(0), args.Bool(1)
}

// ConfirmRestore mocks the ConfirmRestore method.
func (m *MockPrompter) ConfirmRestore(snapshot, dir string) bool {
	args := m.Called(snapshot, dir)
	return args.Bool(0)
}

// MockChecker is a testify mock of gameproc.Checker.
type MockChecker struct {
	mock.Mock
}

// IsRunning mocks the IsRunning method.
func (m *MockChecker) IsRunning(name string) bool {
	args := m.Called(name)
	return args.Bool(0)
}
