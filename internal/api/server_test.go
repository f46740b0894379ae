package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/backmassage/muxconv/internal/logging"
	"github.com/backmassage/muxconv/internal/pipeline"
	"github.com/backmassage/muxconv/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	settings := pipeline.DefaultSettings()
	settings.VideoEncoder = "mpeg4"
	s := NewServer(pipeline.NewController(settings, logging.Discard()), logging.Discard())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func postRun(t *testing.T, ts *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := ts.Client().Post(ts.URL+"/api/v1/runs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func fetchStatus(ts *httptest.Server) (statusResponse, error) {
	var st statusResponse
	resp, err := ts.Client().Get(ts.URL + "/api/v1/status")
	if err != nil {
		return st, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("status %d", resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&st)
	return st, err
}

func getStatus(t *testing.T, ts *httptest.Server) statusResponse {
	t.Helper()
	st, err := fetchStatus(ts)
	require.NoError(t, err)
	return st
}

// finished is an Eventually condition: the last run has been reported.
func finished(ts *httptest.Server) func() bool {
	return func() bool {
		st, err := fetchStatus(ts)
		return err == nil && !st.Running && st.Last != nil
	}
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "muxconv_run_active")
}

func TestStartRun_BadRequests(t *testing.T) {
	_, ts := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"unknown field", `{"input":"a.mkv","speed":"fast"}`},
		{"empty input", `{"input":"","format":"mp4"}`},
		{"bad format", `{"input":"a.mkv","format":"a/b"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postRun(t, ts, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			assert.Contains(t, string(body), "error")
		})
	}
}

func TestCancel_NoActiveRun(t *testing.T) {
	_, ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/runs/current", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatus_Idle(t *testing.T) {
	_, ts := newTestServer(t)
	st := getStatus(t, ts)
	assert.Equal(t, "idle", st.State)
	assert.False(t, st.Running)
	assert.Nil(t, st.Last)
}

func TestRun_EventsAndStatus(t *testing.T) {
	s, ts := newTestServer(t)
	in := testutil.Write(t, t.TempDir(), testutil.Fixture{
		Name: "clip.mkv", Muxer: "matroska", Video: true, Audio: true, Frames: 25,
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	body, _ := json.Marshal(startRequest{Input: in, Format: "mkv"})
	resp, data := postRun(t, ts, string(body))
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(data))
	var started startResponse
	require.NoError(t, json.Unmarshal(data, &started))
	assert.NotEmpty(t, started.ID)
	assert.True(t, strings.HasSuffix(started.Output, "clip_converted.mkv"))

	var lines []string
	sawProgress := false
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	for {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		m := pipeline.Message(msg)
		if m.IsProgress() {
			sawProgress = true
			continue
		}
		lines = append(lines, string(msg))
		if strings.HasPrefix(string(msg), "Remux finished.") {
			break
		}
	}
	assert.True(t, sawProgress)
	assert.Equal(t, "Starting remux (stream-copy) conversion...", lines[0])
	assert.Equal(t, "Remux finished. Output: "+started.Output, lines[len(lines)-1])

	require.Eventually(t, finished(ts), 5*time.Second, 20*time.Millisecond)
	st := getStatus(t, ts)
	assert.Equal(t, started.ID, st.Last.ID)
	assert.Equal(t, "idle", st.Last.Final)
	assert.Empty(t, st.Last.Error)
}

func TestRun_FailureReported(t *testing.T) {
	_, ts := newTestServer(t)
	body, _ := json.Marshal(startRequest{Input: "/does/not/exist.mkv"})
	resp, data := postRun(t, ts, string(body))
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(data))

	require.Eventually(t, finished(ts), 5*time.Second, 20*time.Millisecond)
	st := getStatus(t, ts)
	assert.Equal(t, "aborted", st.Last.Final)
	assert.Equal(t, "open_input", st.Last.Kind)
	assert.True(t, strings.HasSuffix(st.Last.Output, "exist_converted.mp4"))
}

func TestStartRequest_Decode(t *testing.T) {
	var req startRequest
	dec := json.NewDecoder(bytes.NewBufferString(`{"input":"/m/a.avi","format":"mov","reencode":true}`))
	require.NoError(t, dec.Decode(&req))
	assert.Equal(t, startRequest{Input: "/m/a.avi", Format: "mov", Reencode: true}, req)
}
