package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"reelcheck/models"
	"reelcheck/services/jellyfin"
)

func TestProbePrefersExactTitleAndYear(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := NewMockMediaServer(ctrl)
	server.EXPECT().SearchMovies(gomock.Any(), "The Thing", 1982).Return([]jellyfin.Movie{
		{ID: "remake", Name: "The Thing", ProductionYear: 2011},
		{ID: "parody", Name: "The Thing About Harry", ProductionYear: 1982},
		{ID: "original", Name: "The Thing", ProductionYear: 1982},
	}, nil)

	result := NewProber(server, time.Second).Probe(context.Background(), "The Thing", 1982)
	if id, ok := result.Match(); !ok || id != "original" {
		t.Fatalf("expected original, got %s", result)
	}
}

func TestProbeMatchesNormalisedTitle(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := NewMockMediaServer(ctrl)
	server.EXPECT().SearchMovies(gomock.Any(), "Amelie", 0).Return([]jellyfin.Movie{
		{ID: "other", Name: "Amelie Returns"},
		{ID: "amelie", Name: "Le Fabuleux Destin d'Amélie Poulain", OriginalTitle: "Amélie"},
	}, nil)

	result := NewProber(server, time.Second).Probe(context.Background(), "Amelie", 0)
	if id, _ := result.Match(); id != "amelie" {
		t.Fatalf("expected original-title match, got %s", result)
	}
}

func TestProbeFallsBackToFirstCandidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := NewMockMediaServer(ctrl)
	server.EXPECT().SearchMovies(gomock.Any(), "Heat", 1995).Return([]jellyfin.Movie{
		{ID: "first", Name: "Heat (Director's Cut)", ProductionYear: 1995},
		{ID: "second", Name: "Heat Wave", ProductionYear: 1995},
	}, nil)

	result := NewProber(server, time.Second).Probe(context.Background(), "Heat", 1995)
	if id, ok := result.Match(); !ok || id != "first" {
		t.Fatalf("expected first candidate, got %s", result)
	}
}

func TestProbeNotFoundAndFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := NewMockMediaServer(ctrl)
	server.EXPECT().SearchMovies(gomock.Any(), "Nothing", 0).Return(nil, nil)
	server.EXPECT().SearchMovies(gomock.Any(), "Broken", 0).Return(nil, errors.New("502"))

	prober := NewProber(server, time.Second)

	if r := prober.Probe(context.Background(), "Nothing", 0); r.Kind() != ProbeNotFound {
		t.Fatalf("expected not found, got %s", r)
	}

	r := prober.Probe(context.Background(), "Broken", 0)
	if r.Kind() != ProbeFailed || r.Err() == nil {
		t.Fatalf("expected failed with reason, got %s", r)
	}
	if id, ok := r.Match(); ok || id != "" {
		t.Fatalf("failed probe must collapse to unavailable, got (%q, %v)", id, ok)
	}
}

func TestProbeEmptyTitleSkipsServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := NewMockMediaServer(ctrl)

	if r := NewProber(server, time.Second).Probe(context.Background(), "   ", 2000); r.Kind() != ProbeNotFound {
		t.Fatalf("expected not found for blank title, got %s", r)
	}
}

func TestProbeAppliesTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := NewMockMediaServer(ctrl)
	server.EXPECT().SearchMovies(gomock.Any(), "Slow", 0).DoAndReturn(
		func(ctx context.Context, _ string, _ int) ([]jellyfin.Movie, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	r := NewProber(server, 20*time.Millisecond).Probe(context.Background(), "Slow", 0)
	if r.Kind() != ProbeFailed || !errors.Is(r.Err(), context.DeadlineExceeded) {
		t.Fatalf("expected deadline failure, got %s", r)
	}
}

func TestGateCheckConnectivity(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := NewMockMediaServer(ctrl)
	gate := NewGate(server, time.Second)

	if _, known := gate.LastKnown(); known {
		t.Fatal("expected unknown connectivity before first check")
	}

	server.EXPECT().Ping(gomock.Any()).Return(nil)
	if !gate.CheckConnectivity(context.Background()) {
		t.Fatal("expected reachable")
	}
	if reachable, known := gate.LastKnown(); !reachable || !known {
		t.Fatal("expected last known reachable")
	}

	server.EXPECT().Ping(gomock.Any()).Return(errors.New("refused"))
	if gate.CheckConnectivity(context.Background()) {
		t.Fatal("expected unreachable")
	}
	if reachable, known := gate.LastKnown(); reachable || !known {
		t.Fatal("expected last known unreachable")
	}
}

func TestGateTimesOutAndNeverPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := NewMockMediaServer(ctrl)
	server.EXPECT().Ping(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	server.EXPECT().Ping(gomock.Any()).DoAndReturn(func(context.Context) error {
		panic("client bug")
	})

	gate := NewGate(server, 20*time.Millisecond)
	if gate.CheckConnectivity(context.Background()) {
		t.Fatal("expected timeout to read as unreachable")
	}
	if gate.CheckConnectivity(context.Background()) {
		t.Fatal("expected panic to read as unreachable")
	}
}

func TestGateIgnoresCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := NewMockMediaServer(ctrl)
	// A healthy server that only fails because the caller went away.
	server.EXPECT().Ping(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		return ctx.Err()
	}).Times(3)

	gate := NewGate(server, time.Second)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	if gate.CheckConnectivity(cancelled) {
		t.Fatal("expected a cancelled check to report false")
	}
	if _, known := gate.LastKnown(); known {
		t.Fatal("expected connectivity to stay unknown after a cancelled check")
	}

	if !gate.CheckConnectivity(context.Background()) {
		t.Fatal("expected reachable")
	}
	if gate.CheckConnectivity(cancelled) {
		t.Fatal("expected a cancelled check to report false")
	}
	if reachable, known := gate.LastKnown(); !reachable || !known {
		t.Fatalf("expected last known reachable to survive cancellation, got reachable=%v known=%v", reachable, known)
	}
}

func TestEndToEndInceptionMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := NewMockMediaServer(ctrl)
	server.EXPECT().Ping(gomock.Any()).Return(nil)
	server.EXPECT().SearchMovies(gomock.Any(), "Inception", 2010).Return([]jellyfin.Movie{
		{ID: "abc123", Name: "Inception", ProductionYear: 2010},
	}, nil)

	store := newMemoryStore()
	sweeper := NewSweeper(NewGate(server, time.Second), NewProber(server, time.Second), store, Options{Now: fixedNow})

	entry := sampleEntries("Inception")[0]
	entry.ReleaseYear = 2010
	if _, err := sweeper.Sweep(context.Background(), []models.WatchlistEntry{entry}); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	got := store.get(entry.ID)
	if got.ExternalServerItemID != "abc123" || !got.AvailableOnServer {
		t.Fatalf("expected abc123 available, got %+v", got)
	}
	if got.LastAvailabilityCheck == nil || !got.LastAvailabilityCheck.Equal(sweepTime) {
		t.Fatalf("expected check time %v, got %v", sweepTime, got.LastAvailabilityCheck)
	}
}
