package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	jobsvc "github.com/ternarybob/diario/internal/services/jobs"
	"github.com/ternarybob/diario/internal/services/metrics"
)

type handlerFixture struct {
	paths    common.Paths
	jobs     *jobsvc.Service
	handler  *JobHandler
	artifact *ArtifactHandler
	approval *ApprovalHandler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	paths := common.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirs())
	logger := arbor.NewLogger()

	jobSvc, err := jobsvc.NewService(paths, jobsvc.NewQueue(paths.QueueFile, logger), metrics.NewService(), logger)
	require.NoError(t, err)

	return &handlerFixture{
		paths:    paths,
		jobs:     jobSvc,
		handler:  NewJobHandler(jobSvc, paths),
		artifact: NewArtifactHandler(jobSvc, paths),
		approval: NewApprovalHandler(jobSvc),
	}
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCollectionHandler_UploadCreatesQueuedJob(t *testing.T) {
	fixture := newHandlerFixture(t)

	body, contentType := multipartUpload(t, "edital.txt", "Orgao: Conselho\n")
	req := httptest.NewRequest(http.MethodPost, "/jobs/", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	fixture.handler.CollectionHandler(recorder, req)

	require.Equal(t, http.StatusCreated, recorder.Code)
	var job models.Job
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &job))
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, "edital.txt", job.Filename)
	assert.NotEmpty(t, job.JobID)
}

func TestCollectionHandler_MissingFileField(t *testing.T) {
	fixture := newHandlerFixture(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/jobs/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()

	fixture.handler.CollectionHandler(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "detail")
}

func TestCollectionHandler_ListReturnsJobs(t *testing.T) {
	fixture := newHandlerFixture(t)
	_, err := fixture.jobs.Create("edital.txt", "ana")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/jobs/", nil)
	recorder := httptest.NewRecorder()

	fixture.handler.CollectionHandler(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	var list models.JobList
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &list))
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, "edital.txt", list.Jobs[0].Filename)
}

func TestDetailHandler_UnknownJob(t *testing.T) {
	fixture := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/jobs/missing", nil)
	recorder := httptest.NewRecorder()

	fixture.handler.DetailHandler(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Contains(t, response["detail"], "missing")
}

func TestPreviewHandler_NotReady(t *testing.T) {
	fixture := newHandlerFixture(t)
	job, err := fixture.jobs.Create("edital.txt", "ana")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/preview/"+job.JobID, nil)
	recorder := httptest.NewRecorder()

	fixture.artifact.PreviewHandler(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "not ready")
}

func TestDownloadHandler_UnknownJob(t *testing.T) {
	fixture := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/download/ghost", nil)
	recorder := httptest.NewRecorder()

	fixture.artifact.DownloadHandler(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestApproveHandler_RequiresApprover(t *testing.T) {
	fixture := newHandlerFixture(t)
	job, err := fixture.jobs.Create("edital.txt", "ana")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/approval/"+job.JobID, strings.NewReader(`{"notes":"ok"}`))
	recorder := httptest.NewRecorder()

	fixture.approval.ApproveHandler(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "approver")
}

func TestApproveHandler_ApprovesJob(t *testing.T) {
	fixture := newHandlerFixture(t)
	job, err := fixture.jobs.Create("edital.txt", "ana")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/approval/"+job.JobID, strings.NewReader(`{"approver":"chefe","notes":"ok"}`))
	recorder := httptest.NewRecorder()

	fixture.approval.ApproveHandler(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	var response models.ApprovalResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.True(t, response.Approved)
	assert.Equal(t, job.JobID, response.JobID)
	assert.NotNil(t, response.ApprovedAt)

	updated, err := fixture.jobs.Get(job.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusApproved, updated.Status)
}

func TestApproveHandler_UnknownJob(t *testing.T) {
	fixture := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/approval/ghost", strings.NewReader(`{"approver":"chefe"}`))
	recorder := httptest.NewRecorder()

	fixture.approval.ApproveHandler(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
