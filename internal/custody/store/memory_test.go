package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"jailcheck/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func (s *MemoryStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	run := newRun(time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Save(ctx, run))

	found, err := s.store.Find(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(run, found)
	s.NotSame(run, found)
}

func (s *MemoryStoreSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestSaveNil() {
	s.Error(s.store.Save(context.Background(), nil))
}

func (s *MemoryStoreSuite) TestSaveReplaces() {
	ctx := context.Background()
	run := failedRun(time.Now())
	s.Require().NoError(s.store.Save(ctx, run))
	run.RosterSize = 7
	s.Require().NoError(s.store.Save(ctx, run))

	runs, err := s.store.List(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(runs, 1)
	s.Equal(7, runs[0].RosterSize)
}

func (s *MemoryStoreSuite) TestListNewestFirst() {
	ctx := context.Background()
	base := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
	older := newRun(base)
	newest := failedRun(base.Add(2 * time.Hour))
	middle := newRun(base.Add(time.Hour))
	s.Require().NoError(s.store.Save(ctx, older))
	s.Require().NoError(s.store.Save(ctx, newest))
	s.Require().NoError(s.store.Save(ctx, middle))

	runs, err := s.store.List(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(runs, 3)
	s.Equal(newest.ID, runs[0].ID)
	s.Equal(middle.ID, runs[1].ID)
	s.Equal(older.ID, runs[2].ID)

	limited, err := s.store.List(ctx, 2)
	s.Require().NoError(err)
	s.Len(limited, 2)
}
