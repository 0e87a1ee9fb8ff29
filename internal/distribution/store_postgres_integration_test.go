//go:build integration

package distribution_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cohortd/internal/distribution"
	"cohortd/pkg/testutil/containers"
)

type PostgresAuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *distribution.PostgresAuditStore
}

func TestPostgresAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditStoreSuite))
}

func (s *PostgresAuditStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = distribution.NewPostgresAudit(s.postgres.DB)
}

func (s *PostgresAuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "request_audit"))
}

func (s *PostgresAuditStoreSuite) insert(statusCode int, createdAt time.Time) distribution.RequestAudit {
	audit := distribution.RequestAudit{
		RequestID:  uuid.New(),
		StatusCode: statusCode,
		CreatedAt:  createdAt,
	}
	s.Require().NoError(s.store.Insert(context.Background(), audit))
	return audit
}

func (s *PostgresAuditStoreSuite) TestInsertAndByID() {
	audit := s.insert(distribution.StatusSuccess, time.Now().UTC())

	got, err := s.store.ByID(context.Background(), audit.RequestID)
	s.Require().NoError(err)
	s.Equal(audit.RequestID, got.RequestID)
	s.Equal(distribution.StatusSuccess, got.StatusCode)
}

func (s *PostgresAuditStoreSuite) TestByIDUnknown() {
	_, err := s.store.ByID(context.Background(), uuid.New())
	s.True(errors.Is(err, distribution.ErrAuditNotFound))
}

func (s *PostgresAuditStoreSuite) TestInsertRejectsDuplicateRequestID() {
	audit := s.insert(distribution.StatusSuccess, time.Now().UTC())

	err := s.store.Insert(context.Background(), distribution.RequestAudit{
		RequestID:  audit.RequestID,
		StatusCode: distribution.StatusSuccess,
		CreatedAt:  time.Now().UTC(),
	})
	s.Error(err)
}

func (s *PostgresAuditStoreSuite) TestQueryFilters() {
	now := time.Now().UTC()
	old := s.insert(distribution.StatusSuccess, now.Add(-72*time.Hour))
	errored := s.insert(distribution.StatusInternalError, now.Add(-time.Hour))
	recent := s.insert(distribution.StatusSuccess, now)

	s.Run("by status code", func() {
		code := distribution.StatusInternalError
		audits, err := s.store.Query(context.Background(), distribution.AuditFilter{StatusCode: &code})
		s.Require().NoError(err)
		s.Require().Len(audits, 1)
		s.Equal(errored.RequestID, audits[0].RequestID)
	})

	s.Run("by date from", func() {
		from := now.Add(-2 * time.Hour)
		audits, err := s.store.Query(context.Background(), distribution.AuditFilter{DateFrom: &from})
		s.Require().NoError(err)
		s.Require().Len(audits, 2)
		s.Equal(errored.RequestID, audits[0].RequestID)
		s.Equal(recent.RequestID, audits[1].RequestID)
	})

	s.Run("by request id", func() {
		audits, err := s.store.Query(context.Background(), distribution.AuditFilter{RequestID: &old.RequestID})
		s.Require().NoError(err)
		s.Require().Len(audits, 1)
	})

	s.Run("unfiltered is chronological", func() {
		audits, err := s.store.Query(context.Background(), distribution.AuditFilter{})
		s.Require().NoError(err)
		s.Require().Len(audits, 3)
		s.Equal(old.RequestID, audits[0].RequestID)
		s.Equal(recent.RequestID, audits[2].RequestID)
	})
}

func (s *PostgresAuditStoreSuite) TestLatest() {
	_, err := s.store.Latest(context.Background())
	s.True(errors.Is(err, distribution.ErrAuditNotFound))

	now := time.Now().UTC()
	s.insert(distribution.StatusSuccess, now.Add(-time.Hour))
	newest := s.insert(distribution.StatusSuccess, now)

	got, err := s.store.Latest(context.Background())
	s.Require().NoError(err)
	s.Equal(newest.RequestID, got.RequestID)
}
