package services_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/repository"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// mockJobStore keeps jobs in memory and serves the queue from a channel.
type mockJobStore struct {
	mu    sync.Mutex
	jobs  map[string]models.UploadJob
	queue chan string
	saved chan string
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{
		jobs:  make(map[string]models.UploadJob),
		queue: make(chan string, 10),
		saved: make(chan string, 10),
	}
}

func (m *mockJobStore) Save(ctx context.Context, job *models.UploadJob, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.jobs[job.ID] = *job
	m.mu.Unlock()
	if job.Status == models.JobStatusDone || job.Status == models.JobStatusFailed {
		m.saved <- job.ID
	}
	return nil
}

func (m *mockJobStore) Get(_ context.Context, id string) (*models.UploadJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	return &job, nil
}

func (m *mockJobStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	return nil
}

func (m *mockJobStore) Enqueue(_ context.Context, id string) error {
	m.queue <- id
	return nil
}

func (m *mockJobStore) Dequeue(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case id := <-m.queue:
		return id, nil
	}
}

func (m *mockJobStore) job(id string) models.UploadJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

func queueJob(t *testing.T, store *mockJobStore, id, content string, strict bool) string {
	t.Helper()
	path := writeUpload(t, id+".csv", content)
	job := &models.UploadJob{
		ID:        id,
		Status:    models.JobStatusPending,
		CompanyID: 11,
		FileName:  "catalog.csv",
		FilePath:  path,
		Strict:    strict,
		CreatedAt: time.Now(),
	}
	store.mu.Lock()
	store.jobs[id] = *job
	store.mu.Unlock()
	require.NoError(t, store.Enqueue(context.Background(), id))
	return path
}

func waitSaved(t *testing.T, store *mockJobStore) string {
	t.Helper()
	select {
	case id := <-store.saved:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job result")
		return ""
	}
}

func TestWorker_ProcessesQueuedJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture()
	store := newMockJobStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := services.StartPlanImportWorker(ctx, store, f.svc)

	okPath := queueJob(t, store, "job-ok", validCSV, false)
	strictPath := queueJob(t, store, "job-strict", mixedCSV, true)

	assert.Equal(t, "job-ok", waitSaved(t, store))
	assert.Equal(t, "job-strict", waitSaved(t, store))

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	ok := store.job("job-ok")
	assert.Equal(t, models.JobStatusDone, ok.Status)
	require.NotNil(t, ok.Result)
	assert.Equal(t, models.UploadStatusCompleted, ok.Result.Batch.Status)
	assert.Equal(t, 2, ok.Result.Batch.PersistedCount)

	strict := store.job("job-strict")
	assert.Equal(t, models.JobStatusDone, strict.Status)
	assert.Equal(t, models.UploadStatusRejected, strict.Result.Batch.Status)

	assert.Len(t, f.plans.stored, 2)
	for _, p := range []string{okPath, strictPath} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "uploaded file should be removed: %s", p)
	}
}

func TestWorker_FailedImportIsRecorded(t *testing.T) {
	f := newFixture()
	store := newMockJobStore()
	path := writeUpload(t, "bad.csv", validCSV)
	store.jobs["job-bad"] = models.UploadJob{ID: "job-bad", FilePath: path, FileName: "bad.csv", CompanyID: 0}

	services.ProcessImportJob(context.Background(), store, f.svc, "job-bad")

	job := store.job("job-bad")
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "Invalid company id", job.Error)
	assert.Nil(t, job.Result)
}

func TestWorker_InterruptedImportIsRequeued(t *testing.T) {
	f := newFixture()
	store := newMockJobStore()
	path := queueJob(t, store, "job-cut", validCSV, false)
	<-store.queue

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	services.ProcessImportJob(ctx, store, f.svc, "job-cut")

	job := store.job("job-cut")
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Nil(t, job.Result)
	assert.Empty(t, f.plans.stored)
	assert.Empty(t, f.batches.batches)

	_, err := os.Stat(path)
	assert.NoError(t, err, "file must be kept for the retry")

	select {
	case id := <-store.queue:
		assert.Equal(t, "job-cut", id)
	default:
		t.Fatal("job was not requeued")
	}

	services.ProcessImportJob(context.Background(), store, f.svc, "job-cut")
	assert.Equal(t, models.JobStatusDone, store.job("job-cut").Status)
	assert.Len(t, f.plans.stored, 2)
}

func TestWorker_UnknownJobIsSkipped(t *testing.T) {
	f := newFixture()
	store := newMockJobStore()

	services.ProcessImportJob(context.Background(), store, f.svc, "missing")

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
}

func TestWorker_NotStartedWithoutDependencies(t *testing.T) {
	done := services.StartPlanImportWorker(context.Background(), nil, nil)

	select {
	case <-done:
	default:
		t.Fatal("expected closed channel")
	}
}
