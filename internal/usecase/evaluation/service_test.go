package evaluation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	domaineval "axcouncil/internal/domain/evaluation"
	"axcouncil/internal/infrastructure/persistence/sqlite/model"
	"axcouncil/internal/infrastructure/persistence/sqlite/repository"
	"axcouncil/internal/ports"
)

type fakeDispatcher struct {
	requests []ports.DispatchRequest
	err      error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req ports.DispatchRequest) error {
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

func setupService(t *testing.T) (*Service, *fakeDispatcher) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "axcouncil.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.EvaluationJob{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	dispatcher := &fakeDispatcher{}
	return NewService(repository.NewJobRepository(db), dispatcher), dispatcher
}

func testAudience() domaineval.TargetAudience {
	return domaineval.TargetAudience{
		AgeRange:  "25-40",
		Location:  "remote",
		Interests: []string{"developer tooling"},
	}
}

func TestCreateJobNormalizesURL(t *testing.T) {
	svc, _ := setupService(t)

	job, err := svc.CreateJob(context.Background(), CreateJobInput{
		SubjectURL: "example.com/product",
		Audience:   testAudience(),
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if job.SubjectURL != "https://example.com/product" {
		t.Fatalf("subject url = %q", job.SubjectURL)
	}
	if job.Status != domaineval.StatusPending {
		t.Fatalf("status = %q, want pending", job.Status)
	}
	if job.JobID == "" {
		t.Fatal("job id not assigned")
	}
}

func TestCreateJobRejectsBadInput(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.CreateJob(ctx, CreateJobInput{SubjectURL: "", Audience: testAudience()}); !errors.Is(err, domaineval.ErrSubjectURLRequired) {
		t.Fatalf("empty url: err = %v", err)
	}
	if _, err := svc.CreateJob(ctx, CreateJobInput{SubjectURL: "ftp://example.com", Audience: testAudience()}); !errors.Is(err, domaineval.ErrInvalidSubjectURL) {
		t.Fatalf("bad scheme: err = %v", err)
	}
	if _, err := svc.CreateJob(ctx, CreateJobInput{SubjectURL: "example.com"}); !errors.Is(err, domaineval.ErrAudienceRequired) {
		t.Fatalf("empty audience: err = %v", err)
	}
}

func TestDispatchSendsStoredJob(t *testing.T) {
	svc, dispatcher := setupService(t)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, CreateJobInput{SubjectURL: "example.com", Audience: testAudience()})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := svc.Dispatch(ctx, job.JobID); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(dispatcher.requests) != 1 {
		t.Fatalf("dispatched %d requests, want 1", len(dispatcher.requests))
	}
	req := dispatcher.requests[0]
	if req.JobID != job.JobID || req.SubjectURL != job.SubjectURL {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Audience.AgeRange != "25-40" {
		t.Fatalf("audience not round-tripped: %+v", req.Audience)
	}
}

func TestDispatchFailureLeavesJobPending(t *testing.T) {
	svc, dispatcher := setupService(t)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, CreateJobInput{SubjectURL: "example.com", Audience: testAudience()})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	dispatcher.err = errors.New("broker unreachable")
	if err := svc.Dispatch(ctx, job.JobID); !errors.Is(err, domaineval.ErrDispatchFailed) {
		t.Fatalf("dispatch err = %v", err)
	}

	stored, err := svc.GetJob(ctx, job.JobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != domaineval.StatusPending {
		t.Fatalf("status after failed dispatch = %q, want pending", stored.Status)
	}

	// The row is untouched, so the dispatch can simply be retried.
	dispatcher.err = nil
	if err := svc.Dispatch(ctx, job.JobID); err != nil {
		t.Fatalf("retry dispatch: %v", err)
	}
}

func TestReportStatusWalksStateMachine(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, CreateJobInput{SubjectURL: "example.com", Audience: testAudience()})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	processing, err := svc.ReportStatus(ctx, job.JobID, ReportStatusInput{Status: domaineval.StatusProcessing})
	if err != nil {
		t.Fatalf("to processing: %v", err)
	}
	if processing.Status != domaineval.StatusProcessing {
		t.Fatalf("status = %q", processing.Status)
	}

	result := `{"title":"Example","summary":"scraped"}`
	completed, err := svc.ReportStatus(ctx, job.JobID, ReportStatusInput{
		Status:     domaineval.StatusCompleted,
		ResultJSON: &result,
	})
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if completed.Status != domaineval.StatusCompleted {
		t.Fatalf("status = %q", completed.Status)
	}
	if completed.ResultJSON == nil || *completed.ResultJSON != result {
		t.Fatalf("result not stored: %+v", completed.ResultJSON)
	}
	if completed.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
}

func TestReportStatusRejectsInvalidMoves(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, CreateJobInput{SubjectURL: "example.com", Audience: testAudience()})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	// pending -> completed skips processing.
	result := `{}`
	if _, err := svc.ReportStatus(ctx, job.JobID, ReportStatusInput{Status: domaineval.StatusCompleted, ResultJSON: &result}); !errors.Is(err, domaineval.ErrInvalidTransition) {
		t.Fatalf("skip processing: err = %v", err)
	}

	if _, err := svc.ReportStatus(ctx, job.JobID, ReportStatusInput{Status: domaineval.StatusProcessing}); err != nil {
		t.Fatalf("to processing: %v", err)
	}
	// completed without a result payload.
	if _, err := svc.ReportStatus(ctx, job.JobID, ReportStatusInput{Status: domaineval.StatusCompleted}); !errors.Is(err, domaineval.ErrInvalidTransition) {
		t.Fatalf("missing result: err = %v", err)
	}

	if _, err := svc.ReportStatus(ctx, job.JobID, ReportStatusInput{Status: domaineval.StatusFailed, ErrorText: ptr("scrape timeout")}); err != nil {
		t.Fatalf("to failed: %v", err)
	}
	// Terminal states accept no further reports.
	if _, err := svc.ReportStatus(ctx, job.JobID, ReportStatusInput{Status: domaineval.StatusProcessing}); !errors.Is(err, domaineval.ErrInvalidTransition) {
		t.Fatalf("report after terminal: err = %v", err)
	}
}

func TestClaimJobOnce(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, CreateJobInput{SubjectURL: "example.com", Audience: testAudience()})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	claimed, err := svc.Claim(ctx, job.JobID, "user-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.UserID == nil || *claimed.UserID != "user-1" {
		t.Fatalf("user id = %v", claimed.UserID)
	}

	if _, err := svc.Claim(ctx, job.JobID, "user-2"); !errors.Is(err, domaineval.ErrAlreadyClaimed) {
		t.Fatalf("second claim: err = %v", err)
	}
	stored, err := svc.GetJob(ctx, job.JobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if *stored.UserID != "user-1" {
		t.Fatalf("claim overwritten: %q", *stored.UserID)
	}
}

func TestGetJobNotFound(t *testing.T) {
	svc, _ := setupService(t)

	if _, err := svc.GetJob(context.Background(), "missing"); !errors.Is(err, domaineval.ErrJobNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
