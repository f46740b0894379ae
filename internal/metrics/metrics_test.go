package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRun(t *testing.T) {
	before := testutil.ToFloat64(RunsTotal.WithLabelValues("remux", "success"))
	ObserveRun("remux", "success", 1500*time.Millisecond)
	if got := testutil.ToFloat64(RunsTotal.WithLabelValues("remux", "success")); got != before+1 {
		t.Errorf("runs_total = %v, want %v", got, before+1)
	}
}

func TestAddPackets(t *testing.T) {
	c := PacketsTotal.WithLabelValues(PacketCopied)
	before := testutil.ToFloat64(c)

	AddPackets(PacketCopied, 7)
	AddPackets(PacketCopied, 0)
	AddPackets(PacketCopied, -3)

	if got := testutil.ToFloat64(c); got != before+7 {
		t.Errorf("packets_total{copied} = %v, want %v", got, before+7)
	}
}

func TestHandlerExposesNames(t *testing.T) {
	ObserveRun("transcode", "mux", time.Second)
	FramesDecoded.Add(0)
	MessagesDropped.Add(0)
	RunActive.Set(0)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		"muxconv_runs_total",
		"muxconv_run_duration_seconds",
		"muxconv_frames_decoded_total",
		"muxconv_messages_dropped_total",
		"muxconv_run_active",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
