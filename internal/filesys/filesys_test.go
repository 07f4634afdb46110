package filesys_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lc/nwconf/internal/filesys"
	"github.com/lc/nwconf/internal/mocks"
)

type AtomicWriteTestSuite struct {
	suite.Suite
	dir string
	dst string
}

func (s *AtomicWriteTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.dst = filepath.Join(s.dir, "rebindings.xml")
	s.Require().NoError(os.WriteFile(s.dst, []byte("original"), 0o644))
}

func (s *AtomicWriteTestSuite) TestReplacesContent() {
	err := filesys.AtomicWrite(filesys.OS(), s.dst, []byte("updated"), 0o644)
	s.Require().NoError(err)

	got, err := os.ReadFile(s.dst)
	s.Require().NoError(err)
	s.Equal("updated", string(got))

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Len(entries, 1, "temp file must not be left behind")
}

func (s *AtomicWriteTestSuite) TestFailedRenameKeepsOriginal() {
	tmp, err := os.CreateTemp(s.dir, ".nwconf-*")
	s.Require().NoError(err)

	fsys := &mocks.MockOsFS{}
	fsys.On("CreateTemp", s.dir, ".nwconf-*").Return(tmp, nil)
	fsys.On("Chmod", tmp.Name(), os.FileMode(0o644)).Return(nil)
	fsys.On("Rename", tmp.Name(), s.dst).Return(errors.New("disk full"))
	fsys.On("Remove", tmp.Name()).Run(func(args mock.Arguments) {
		_ = os.Remove(args.String(0))
	}).Return(nil)

	err = filesys.AtomicWrite(fsys, s.dst, []byte("updated"), 0o644)
	s.Require().Error(err)
	s.Contains(err.Error(), "disk full")

	got, err := os.ReadFile(s.dst)
	s.Require().NoError(err)
	s.Equal("original", string(got))
	fsys.AssertExpectations(s.T())

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Len(entries, 1, "temp file must be discarded")
}

func TestAtomicWriteSuite(t *testing.T) {
	suite.Run(t, new(AtomicWriteTestSuite))
}
