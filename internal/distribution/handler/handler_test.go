package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cohortd/internal/allocation"
	"cohortd/internal/distribution"
	"cohortd/internal/distribution/handler"
	"cohortd/internal/exception"
	"cohortd/internal/participant"
	"cohortd/internal/transform"
	"cohortd/internal/validation"
)

type HandlerSuite struct {
	suite.Suite
	router       *chi.Mux
	participants *participant.InMemoryStore
	audit        *distribution.InMemoryAuditStore
	service      *distribution.Service
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.participants = participant.NewInMemoryStore()
	s.audit = distribution.NewInMemoryAuditStore()
	exceptions := exception.NewService(exception.NewInMemoryStore(), logger, nil)

	allocator := allocation.NewService(allocation.NewStaticSource([]allocation.Entry{
		{Prefix: "AL", ScreeningService: "BreastScreening", ServiceProvider: "ELD"},
	}), exceptions, nil)

	s.service = distribution.NewService(
		s.participants,
		s.audit,
		distribution.NewInMemoryTx(s.participants, s.audit),
		allocator,
		transform.NewService(transform.NewInMemoryLookups(), exceptions),
		validation.NewService(exceptions),
		logger,
		nil,
		1000,
	)

	s.router = chi.NewRouter()
	handler.New(s.service, logger).Register(s.router)
}

func (s *HandlerSuite) request(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) seedParticipant(nhsNumber string) {
	_, err := s.service.Distribute(context.Background(), distribution.Delta{
		Participant: participant.Participant{
			ParticipantID:      "p-" + nhsNumber,
			NHSNumber:          nhsNumber,
			ScreeningServiceID: "BSS",
			Postcode:           "AL1 1BB",
		},
		Workflow:         participant.WorkflowAdd,
		ScreeningService: "BreastScreening",
	})
	s.Require().NoError(err)
}

func (s *HandlerSuite) TestExtractEmptyReturnsNoContent() {
	rec := s.request(http.MethodGet, "/cohort-distribution", "")
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestExtractServesBatch() {
	s.seedParticipant("9434765919")

	rec := s.request(http.MethodGet, "/cohort-distribution?rowCount=10", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		RequestID    string `json:"requestId"`
		Replayed     bool   `json:"replayed"`
		Participants []struct {
			NHSNumber       string `json:"nhsNumber"`
			ServiceProvider string `json:"serviceProvider"`
		} `json:"participants"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.False(body.Replayed)
	s.Require().Len(body.Participants, 1)
	s.Equal("9434765919", body.Participants[0].NHSNumber)
	s.Equal("ELD", body.Participants[0].ServiceProvider)

	_, err := uuid.Parse(body.RequestID)
	s.NoError(err)
}

func (s *HandlerSuite) TestExtractReplayByRequestID() {
	s.seedParticipant("9434765919")

	first := s.request(http.MethodGet, "/cohort-distribution", "")
	s.Require().Equal(http.StatusOK, first.Code)

	var served struct {
		RequestID string `json:"requestId"`
	}
	s.Require().NoError(json.Unmarshal(first.Body.Bytes(), &served))

	replay := s.request(http.MethodGet, "/cohort-distribution?requestId="+served.RequestID, "")
	s.Require().Equal(http.StatusOK, replay.Code)

	var body struct {
		RequestID string `json:"requestId"`
		Replayed  bool   `json:"replayed"`
	}
	s.Require().NoError(json.Unmarshal(replay.Body.Bytes(), &body))
	s.True(body.Replayed)
	s.Equal(served.RequestID, body.RequestID)
}

func (s *HandlerSuite) TestExtractRejectsMalformedRequestID() {
	rec := s.request(http.MethodGet, "/cohort-distribution?requestId=not-a-uuid", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestExtractRejectsNonPositiveRowCount() {
	for _, raw := range []string{"0", "-5", "ten"} {
		rec := s.request(http.MethodGet, "/cohort-distribution?rowCount="+raw, "")
		s.Equal(http.StatusBadRequest, rec.Code, "rowCount=%s", raw)
	}
}

func (s *HandlerSuite) TestAuditQueryEmptyReturnsNoContent() {
	rec := s.request(http.MethodGet, "/cohort-distribution/audit", "")
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestAuditQueryRejectsUnknownStatusCode() {
	for _, raw := range []string{"201", "abc"} {
		rec := s.request(http.MethodGet, "/cohort-distribution/audit?statusCode="+raw, "")
		s.Equal(http.StatusBadRequest, rec.Code, "statusCode=%s", raw)
	}
}

func (s *HandlerSuite) TestAuditQueryRejectsWrongDateFormat() {
	for _, raw := range []string{"2026-03-01", "01032026", "20261301"} {
		rec := s.request(http.MethodGet, "/cohort-distribution/audit?dateFrom="+raw, "")
		s.Equal(http.StatusBadRequest, rec.Code, "dateFrom=%s", raw)
	}
}

func (s *HandlerSuite) TestAuditQueryReturnsLedgerRows() {
	s.seedParticipant("9434765919")
	s.Require().Equal(http.StatusOK, s.request(http.MethodGet, "/cohort-distribution", "").Code)

	rec := s.request(http.MethodGet, "/cohort-distribution/audit?statusCode=200&dateFrom=20200101", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var body []struct {
		StatusCode int `json:"statusCode"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().Len(body, 1)
	s.Equal(http.StatusOK, body[0].StatusCode)
}

func (s *HandlerSuite) TestLatestAuditEmptyReturnsNoContent() {
	rec := s.request(http.MethodGet, "/cohort-distribution/audit/latest", "")
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestLatestAuditReturnsMostRecentRow() {
	s.seedParticipant("9434765919")
	s.Require().Equal(http.StatusOK, s.request(http.MethodGet, "/cohort-distribution", "").Code)

	rec := s.request(http.MethodGet, "/cohort-distribution/audit/latest", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		RequestID  string `json:"requestId"`
		StatusCode int    `json:"statusCode"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(http.StatusOK, body.StatusCode)
	s.NotEmpty(body.RequestID)
}

func (s *HandlerSuite) TestDistributeCreatesParticipant() {
	payload := `{
		"workflow": "add",
		"screeningService": "BreastScreening",
		"fileName": "cohort_20260301.parquet",
		"participant": {
			"participantId": "p-9434765919",
			"nhsNumber": "9434765919",
			"screeningServiceId": "BSS",
			"postcode": "AL1 1BB"
		}
	}`
	rec := s.request(http.MethodPost, "/participants", payload)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var body struct {
		Version       int  `json:"version"`
		ExceptionFlag bool `json:"exceptionFlag"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(1, body.Version)
	s.False(body.ExceptionFlag)
}

func (s *HandlerSuite) TestDistributeRejectsInvalidBody() {
	rec := s.request(http.MethodPost, "/participants", "{not json")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestDistributeRejectsFatalValidation() {
	payload := `{
		"workflow": "update",
		"screeningService": "BreastScreening",
		"participant": {
			"nhsNumber": "9434765919",
			"screeningServiceId": "BSS",
			"postcode": "AL1 1BB"
		}
	}`
	rec := s.request(http.MethodPost, "/participants", payload)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}
