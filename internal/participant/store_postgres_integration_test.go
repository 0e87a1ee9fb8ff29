//go:build integration

package participant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cohortd/internal/participant"
	"cohortd/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *participant.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = participant.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "cohort_distribution"))
}

func (s *PostgresStoreSuite) append(p participant.Participant) participant.Participant {
	stored, err := s.store.Append(context.Background(), p)
	s.Require().NoError(err)
	return stored
}

func newParticipant(nhsNumber string) participant.Participant {
	return participant.Participant{
		ParticipantID:      "p-" + nhsNumber,
		NHSNumber:          nhsNumber,
		ScreeningServiceID: "BSS",
		Postcode:           "AL1 1BB",
		ServiceProvider:    "ELD",
	}
}

func (s *PostgresStoreSuite) TestAppendAssignsMonotonicVersions() {
	first := s.append(newParticipant("9434765919"))
	second := s.append(newParticipant("9434765919"))
	other := s.append(newParticipant("9434765870"))

	s.Equal(1, first.Version)
	s.Equal(2, second.Version)
	s.Equal(1, other.Version)
	s.False(first.RecordInsertTime.IsZero())
}

func (s *PostgresStoreSuite) TestLatestCurrentRoundTripsAllFields() {
	superseded := "9434765870"
	p := newParticipant("9434765919")
	p.GivenName = "Ada"
	p.FamilyName = "Lovelace"
	p.DateOfBirth = "19850315"
	p.InterpreterRequired = true
	p.PrimaryCareProvider = "P81001"
	p.PrimaryCareProviderEffectiveFrom = "20240101"
	p.SupersededByNHSNumber = &superseded
	s.append(p)

	got, err := s.store.LatestCurrent(context.Background(), "9434765919", "BSS")
	s.Require().NoError(err)
	s.Equal("Ada", got.GivenName)
	s.Equal("Lovelace", got.FamilyName)
	s.True(got.InterpreterRequired)
	s.Equal("P81001", got.PrimaryCareProvider)
	s.Require().NotNil(got.SupersededByNHSNumber)
	s.Equal(superseded, *got.SupersededByNHSNumber)
	s.False(got.Extracted)
	s.Nil(got.RequestID)
}

func (s *PostgresStoreSuite) TestLatestCurrentUnknownSubject() {
	_, err := s.store.LatestCurrent(context.Background(), "9434765919", "BSS")
	s.True(errors.Is(err, participant.ErrNotFound))
}

func (s *PostgresStoreSuite) TestExtractionLifecycle() {
	first := s.append(newParticipant("9434765919"))
	second := s.append(newParticipant("9434765870"))

	rows, err := s.store.SelectUnextracted(context.Background(), 10, true)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(first.RowID, rows[0].RowID)
	s.Equal(second.RowID, rows[1].RowID)

	requestID := uuid.New()
	s.Require().NoError(s.store.MarkExtracted(context.Background(), []int64{rows[0].RowID, rows[1].RowID}, requestID))

	remaining, err := s.store.SelectUnextracted(context.Background(), 10, true)
	s.Require().NoError(err)
	s.Empty(remaining)

	replayed, err := s.store.ByRequestID(context.Background(), requestID)
	s.Require().NoError(err)
	s.Require().Len(replayed, 2)
	s.True(replayed[0].Extracted)
	s.Require().NotNil(replayed[0].RequestID)
	s.Equal(requestID, *replayed[0].RequestID)
}

func (s *PostgresStoreSuite) TestSelectUnextractedSupersededLast() {
	superseded := newParticipant("9434765919")
	marker := "9434765870"
	superseded.SupersededByNHSNumber = &marker
	s.append(superseded)
	current := s.append(newParticipant(marker))

	rows, err := s.store.SelectUnextracted(context.Background(), 10, true)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(current.RowID, rows[0].RowID)
}

func (s *PostgresStoreSuite) TestMarkExtractedRejectsUnknownRows() {
	err := s.store.MarkExtracted(context.Background(), []int64{12345}, uuid.New())
	s.Error(err)
}
