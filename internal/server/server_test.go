package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ats-checker/internal/analysis"
	"github.com/jonathan/ats-checker/internal/observability"
	"github.com/jonathan/ats-checker/internal/submission"
	"github.com/jonathan/ats-checker/internal/types"
)

// gatedDispatcher blocks each dispatch until release is closed.
type gatedDispatcher struct {
	release chan struct{}
	body    string
	calls   atomic.Int32
}

func newGatedDispatcher(body string) *gatedDispatcher {
	return &gatedDispatcher{release: make(chan struct{}), body: body}
}

func (d *gatedDispatcher) Dispatch(ctx context.Context, _ *submission.Request) (*analysis.Response, error) {
	d.calls.Add(1)
	select {
	case <-d.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &analysis.Response{StatusCode: http.StatusOK, ContentType: "application/json", Body: []byte(d.body)}, nil
}

const successBody = `{"job_keywords":["go"],"resume_keywords":["go"],"analysis_report":"Good fit","refined_resume":""}`

func newTestServer(t *testing.T, d submission.Dispatcher, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	logger := observability.Discard()
	opts.Logger = logger
	ctrl := submission.New(d, submission.Options{Logger: logger})
	s := New(ctrl, opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctrl.Close()
		s.rateLimiter.Stop()
	})
	return s, ts
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func do(t *testing.T, method, url, contentType string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func uploadDocument(t *testing.T, baseURL, name string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(documentField, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return do(t, http.MethodPut, baseURL+"/document", mw.FormDataContentType(), buf.Bytes())
}

func setJobDescription(t *testing.T, baseURL, text string) *http.Response {
	t.Helper()
	body, err := json.Marshal(map[string]string{"job_description": text})
	require.NoError(t, err)
	return do(t, http.MethodPut, baseURL+"/job-description", "application/json", body)
}

func currentState(t *testing.T, baseURL string) types.StateSnapshot {
	t.Helper()
	resp, err := http.Get(baseURL + "/state")
	require.NoError(t, err)
	return decode[types.StateSnapshot](t, resp)
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t, newGatedDispatcher(successBody), Options{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestStateStartsIdle(t *testing.T) {
	_, ts := newTestServer(t, newGatedDispatcher(successBody), Options{})

	assert.Equal(t, types.StatusIdle, currentState(t, ts.URL).Status)
}

func TestInputEditing(t *testing.T) {
	_, ts := newTestServer(t, newGatedDispatcher(successBody), Options{})

	resp := uploadDocument(t, ts.URL, "cv.pdf", []byte("%PDF-1.4 resume"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[types.PendingInputView](t, resp)
	require.NotNil(t, view.Document)
	assert.Equal(t, "cv.pdf", view.Document.Name)
	assert.Equal(t, "application/pdf", view.Document.ContentType)
	assert.Equal(t, int64(15), view.Document.SizeBytes)

	resp = setJobDescription(t, ts.URL, "  Go engineer  ")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "  Go engineer  ", decode[types.PendingInputView](t, resp).JobDescription)

	resp = do(t, http.MethodDelete, ts.URL+"/document", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[types.PendingInputView](t, resp)
	assert.Nil(t, view.Document)
	assert.Equal(t, "  Go engineer  ", view.JobDescription)
}

func TestPutJobDescription_BadRequests(t *testing.T) {
	_, ts := newTestServer(t, newGatedDispatcher(successBody), Options{})

	resp := do(t, http.MethodPut, ts.URL+"/job-description", "application/json", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = do(t, http.MethodPut, ts.URL+"/job-description", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], "job_description")
}

func TestPutDocument_MissingField(t *testing.T) {
	_, ts := newTestServer(t, newGatedDispatcher(successBody), Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	resp := do(t, http.MethodPut, ts.URL+"/document", mw.FormDataContentType(), buf.Bytes())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestPutDocument_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, newGatedDispatcher(successBody), Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(documentField, "cv.txt")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), maxUploadBytes+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Nil(t, s.ctrl.Input().Document)
}

func TestSubmit_InvalidInput(t *testing.T) {
	d := newGatedDispatcher(successBody)
	_, ts := newTestServer(t, d, Options{})

	resp := do(t, http.MethodPost, ts.URL+"/submit", "", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	got := decode[SubmitResponse](t, resp)
	assert.True(t, got.Accepted)
	assert.Equal(t, types.StatusInvalid, got.State.Status)
	assert.Equal(t, []string{"missing document", "missing job description"}, got.State.Reasons)
	assert.Zero(t, d.calls.Load())
}

func TestSubmit_InFlightConflictThenSuccess(t *testing.T) {
	d := newGatedDispatcher(successBody)
	_, ts := newTestServer(t, d, Options{})

	uploadDocument(t, ts.URL, "cv.txt", []byte("Go developer")).Body.Close()
	setJobDescription(t, ts.URL, "Go engineer").Body.Close()

	resp := do(t, http.MethodPost, ts.URL+"/submit", "", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	first := decode[SubmitResponse](t, resp)
	assert.Equal(t, types.StatusInFlight, first.State.Status)
	assert.NotEmpty(t, first.State.AttemptID)

	resp = do(t, http.MethodPost, ts.URL+"/submit", "", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	second := decode[SubmitResponse](t, resp)
	assert.False(t, second.Accepted)
	assert.Equal(t, first.State.AttemptID, second.State.AttemptID)

	close(d.release)
	assert.Eventually(t, func() bool {
		return currentState(t, ts.URL).Status == types.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	final := currentState(t, ts.URL)
	require.NotNil(t, final.Result)
	assert.Equal(t, "Good fit", final.Result.AnalysisReportMarkdown)
	assert.Equal(t, int32(1), d.calls.Load())
}

func TestSubmit_RateLimited(t *testing.T) {
	_, ts := newTestServer(t, newGatedDispatcher(successBody), Options{SubmitsPerMinute: 6, SubmitBurst: 1})

	resp := do(t, http.MethodPost, ts.URL+"/submit", "", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
	_ = resp.Body.Close()

	resp = do(t, http.MethodPost, ts.URL+"/submit", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "10", resp.Header.Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decode[map[string]any](t, resp)["error"])

	// Other routes are not limited.
	resp, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t, newGatedDispatcher(successBody), Options{})

	resp := do(t, http.MethodOptions, ts.URL+"/submit", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PUT")
	_ = resp.Body.Close()
}

// readEvent returns the data payload of the next SSE event, skipping comments.
func readEvent(t *testing.T, r *bufio.Reader) (string, types.StateSnapshot) {
	t.Helper()
	var event string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var snap types.StateSnapshot
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap))
			return event, snap
		}
	}
}

func TestEventsStream(t *testing.T) {
	d := newGatedDispatcher(successBody)
	_, ts := newTestServer(t, d, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, snap := readEvent(t, reader)
	assert.Equal(t, "state", event)
	assert.Equal(t, types.StatusIdle, snap.Status)

	uploadDocument(t, ts.URL, "cv.txt", []byte("Go developer")).Body.Close()
	setJobDescription(t, ts.URL, "Go engineer").Body.Close()
	do(t, http.MethodPost, ts.URL+"/submit", "", nil).Body.Close()

	_, snap = readEvent(t, reader)
	assert.Equal(t, types.StatusInFlight, snap.Status)

	close(d.release)
	_, snap = readEvent(t, reader)
	assert.Equal(t, types.StatusSucceeded, snap.Status)
}

func TestOfferLatest(t *testing.T) {
	ch := make(chan types.SubmissionState, 1)
	offerLatest(ch, types.Idle{})
	offerLatest(ch, types.Invalid{Reasons: []string{"missing document"}})

	assert.Equal(t, types.Invalid{Reasons: []string{"missing document"}}, <-ch)
	assert.Empty(t, ch)
}

func TestServe_ShutdownClosesController(t *testing.T) {
	d := newGatedDispatcher(successBody)
	logger := observability.Discard()
	ctrl := submission.New(d, submission.Options{Logger: logger})
	s := New(ctrl, Options{Logger: logger})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.serve(ctx, ln) }()

	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, ctrl.Submit(), "controller is closed after shutdown")
}
