package driver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shuttle-track/internal/client/api"
	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

// scriptedSource lets tests feed the watch stream by hand and count how many
// subscriptions are open at once.
type scriptedSource struct {
	mu         sync.Mutex
	current    geo.Fix
	currentErr error
	watchCalls int
	openWatch  int
	events     chan Event
}

func newScriptedSource(fix geo.Fix) *scriptedSource {
	return &scriptedSource{current: fix, events: make(chan Event, 16)}
}

func (s *scriptedSource) Current(ctx context.Context) (geo.Fix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentErr != nil {
		return geo.Fix{}, s.currentErr
	}
	return s.current, nil
}

func (s *scriptedSource) Watch(ctx context.Context) (<-chan Event, error) {
	s.mu.Lock()
	s.watchCalls++
	s.openWatch++
	s.mu.Unlock()

	out := make(chan Event)
	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			s.openWatch--
			s.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-s.events:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *scriptedSource) push(ev Event) { s.events <- ev }

func (s *scriptedSource) counts() (calls, open int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchCalls, s.openWatch
}

// recordingAPI captures uploads and stop calls.
type recordingAPI struct {
	mu        sync.Mutex
	uploads   []geo.Fix
	uploadErr error
	stops     int
}

func (a *recordingAPI) UploadLocation(_ context.Context, _ string, fix geo.Fix) (ports.UpdateLocationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.uploadErr != nil {
		return ports.UpdateLocationResult{}, a.uploadErr
	}
	a.uploads = append(a.uploads, fix)
	return ports.UpdateLocationResult{Status: "updated"}, nil
}

func (a *recordingAPI) StopTracking(context.Context, string) (ports.StopTrackingResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
	return ports.StopTrackingResult{Status: "arrived"}, nil
}

func (a *recordingAPI) uploadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.uploads)
}

func (a *recordingAPI) lastUpload() (geo.Fix, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.uploads) == 0 {
		return geo.Fix{}, false
	}
	return a.uploads[len(a.uploads)-1], true
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func testFix(lat, lng float64) geo.Fix {
	return geo.Fix{Latitude: lat, Longitude: lng, RecordedAt: time.Now().UTC()}
}

func newTestTracker(src LocationSource, a TrackingAPI, opts Options) *Tracker {
	return NewTracker(logger.New("driver-test"), a, src, "bkg-1", opts)
}

func TestStopIsIdempotent(t *testing.T) {
	src := newScriptedSource(testFix(-36.80, 174.70))
	tr := newTestTracker(src, &recordingAPI{}, Options{
		InitialUploadDelay: time.Hour,
		UploadInterval:     time.Hour,
	})

	// Stop before any Start is a no-op.
	tr.Stop()

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Stop()
	tr.Stop()
	tr.Stop()

	if _, open := src.counts(); open != 0 {
		t.Fatalf("open watches after Stop = %d, want 0", open)
	}
}

func TestSecondStartRejected(t *testing.T) {
	src := newScriptedSource(testFix(-36.80, 174.70))
	tr := newTestTracker(src, &recordingAPI{}, Options{
		InitialUploadDelay: time.Hour,
		UploadInterval:     time.Hour,
	})
	defer tr.Stop()

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tr.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start: err = %v, want ErrAlreadyStarted", err)
	}

	calls, open := src.counts()
	if calls != 1 || open != 1 {
		t.Fatalf("watch calls=%d open=%d, want exactly one live subscription", calls, open)
	}
}

func TestStartAfterStopOpensFreshSubscription(t *testing.T) {
	src := newScriptedSource(testFix(-36.80, 174.70))
	tr := newTestTracker(src, &recordingAPI{}, Options{
		InitialUploadDelay: time.Hour,
		UploadInterval:     time.Hour,
	})

	for i := 0; i < 3; i++ {
		if err := tr.Start(context.Background()); err != nil {
			t.Fatalf("Start #%d: %v", i+1, err)
		}
		if _, open := src.counts(); open != 1 {
			t.Fatalf("open watches while running = %d, want 1", open)
		}
		tr.Stop()
	}
	if calls, open := src.counts(); calls != 3 || open != 0 {
		t.Fatalf("watch calls=%d open=%d after three cycles", calls, open)
	}
}

func TestImmediateUploadUsesSeededFix(t *testing.T) {
	src := newScriptedSource(testFix(-36.80, 174.70))
	a := &recordingAPI{}
	tr := newTestTracker(src, a, Options{
		InitialUploadDelay: 20 * time.Millisecond,
		UploadInterval:     time.Hour,
	})
	defer tr.Stop()

	if _, err := tr.RequestPermission(context.Background()); err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, time.Second, func() bool { return a.uploadCount() >= 1 },
		"no immediate upload after start")
	if fix, _ := a.lastUpload(); fix.Latitude != -36.80 || fix.Longitude != 174.70 {
		t.Fatalf("uploaded %v, want the permission-seeded fix", fix)
	}
}

func TestPeriodicUploadReadsFixAtFireTime(t *testing.T) {
	src := newScriptedSource(testFix(-36.80, 174.70))
	a := &recordingAPI{}
	tr := newTestTracker(src, a, Options{
		InitialUploadDelay: time.Hour,
		UploadInterval:     25 * time.Millisecond,
	})
	defer tr.Stop()

	if _, err := tr.RequestPermission(context.Background()); err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, time.Second, func() bool { return a.uploadCount() >= 2 },
		"periodic uploads did not fire")

	// A new fix arriving mid-stream must be what later ticks upload.
	moved := testFix(-36.75, 174.65)
	src.push(Event{Fix: &moved})

	before := a.uploadCount()
	waitFor(t, time.Second, func() bool { return a.uploadCount() >= before+2 },
		"uploads stopped after fix change")
	if fix, _ := a.lastUpload(); fix.Latitude != -36.75 {
		t.Fatalf("last upload lat = %v, want the freshest fix", fix.Latitude)
	}
}

func TestUploadOnFixChange(t *testing.T) {
	src := newScriptedSource(testFix(-36.80, 174.70))
	a := &recordingAPI{}
	tr := newTestTracker(src, a, Options{
		InitialUploadDelay: time.Hour,
		UploadInterval:     time.Hour,
	})
	defer tr.Stop()

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	moved := testFix(-36.79, 174.71)
	src.push(Event{Fix: &moved})

	waitFor(t, time.Second, func() bool { return a.uploadCount() == 1 },
		"fix change did not trigger an upload")
	if fix, _ := a.lastUpload(); fix.Latitude != -36.79 {
		t.Fatalf("uploaded %v, want the changed fix", fix)
	}
}

func TestSignalLostEventsAreNonFatal(t *testing.T) {
	src := newScriptedSource(testFix(-36.80, 174.70))
	a := &recordingAPI{}
	tr := newTestTracker(src, a, Options{
		InitialUploadDelay: time.Hour,
		UploadInterval:     time.Hour,
	})
	defer tr.Stop()

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	src.push(Event{Err: ErrSignalLost})
	recovered := testFix(-36.78, 174.72)
	src.push(Event{Fix: &recovered})

	waitFor(t, time.Second, func() bool { return a.uploadCount() == 1 },
		"loop did not survive a signal-lost event")
}

func TestUploadFailuresAreSwallowed(t *testing.T) {
	src := newScriptedSource(testFix(-36.80, 174.70))
	a := &recordingAPI{uploadErr: errors.New("network down")}
	tr := newTestTracker(src, a, Options{
		InitialUploadDelay: 10 * time.Millisecond,
		UploadInterval:     20 * time.Millisecond,
	})
	defer tr.Stop()

	if _, err := tr.RequestPermission(context.Background()); err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Let a few failing ticks pass, then heal the network. Uploads resume.
	time.Sleep(80 * time.Millisecond)
	a.mu.Lock()
	a.uploadErr = nil
	a.mu.Unlock()

	waitFor(t, time.Second, func() bool { return a.uploadCount() >= 1 },
		"uploads did not resume after failures")
}

func TestRequestPermissionDenied(t *testing.T) {
	src := newScriptedSource(geo.Fix{})
	src.currentErr = ErrPermissionDenied
	tr := newTestTracker(src, &recordingAPI{}, Options{PermissionTimeout: 50 * time.Millisecond})

	if _, err := tr.RequestPermission(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestMarkArrived(t *testing.T) {
	src := newScriptedSource(testFix(-36.80, 174.70))
	a := &recordingAPI{}
	tr := newTestTracker(src, a, Options{
		InitialUploadDelay: time.Hour,
		UploadInterval:     time.Hour,
	})

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tr.MarkArrived(context.Background()); err != nil {
		t.Fatalf("MarkArrived: %v", err)
	}

	a.mu.Lock()
	stops := a.stops
	a.mu.Unlock()
	if stops != 1 {
		t.Fatalf("stop calls = %d, want 1", stops)
	}
	if _, open := src.counts(); open != 0 {
		t.Fatal("watch still open after MarkArrived")
	}
}

// End to end over a real HTTP round trip: scripted source -> tracker ->
// api.Client -> fake server.
func TestTrackerAgainstFakeServer(t *testing.T) {
	type upload struct {
		BookingID string  `json:"booking_id"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}

	var mu sync.Mutex
	var uploads []upload
	var stops int

	srvMux := http.NewServeMux()
	srvMux.HandleFunc("POST /api/tracking/update-location", func(w http.ResponseWriter, r *http.Request) {
		var u upload
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			t.Errorf("decode upload: %v", err)
		}
		mu.Lock()
		uploads = append(uploads, u)
		mu.Unlock()
		eta := 12
		json.NewEncoder(w).Encode(ports.UpdateLocationResult{Status: "updated", ETAMinutes: &eta})
	})
	srvMux.HandleFunc("POST /api/tracking/stop", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stops++
		mu.Unlock()
		json.NewEncoder(w).Encode(ports.StopTrackingResult{Message: "Tracking stopped", Status: "arrived"})
	})
	srv := httptest.NewServer(srvMux)
	defer srv.Close()

	client := api.NewClient(srv.URL, logger.New("driver-test"))
	src := newScriptedSource(testFix(-36.80, 174.70))
	tr := NewTracker(logger.New("driver-test"), client, src, "bkg-42", Options{
		InitialUploadDelay: 10 * time.Millisecond,
		UploadInterval:     30 * time.Millisecond,
	})

	if _, err := tr.RequestPermission(context.Background()); err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(uploads) >= 2
	}, "server saw fewer than two uploads")

	if err := tr.MarkArrived(context.Background()); err != nil {
		t.Fatalf("MarkArrived: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, u := range uploads {
		if u.BookingID != "bkg-42" || u.Latitude != -36.80 || u.Longitude != 174.70 {
			t.Fatalf("server received %+v", u)
		}
	}
	if stops != 1 {
		t.Fatalf("stop calls = %d, want 1", stops)
	}
}
