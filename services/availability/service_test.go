package availability

import (
	"context"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"reelcheck/models"
)

func TestCheckAllMoviesReportsUnreachable(t *testing.T) {
	ctrl := gomock.NewController(t)
	gate := NewMockConnectivityChecker(ctrl)
	gate.EXPECT().CheckConnectivity(gomock.Any()).Return(false)

	service := NewService(gate, NewMockEntryProber(ctrl), NewMockStatusWriter(ctrl), Options{Now: fixedNow})
	defer service.Close(context.Background())

	report := service.CheckAllMovies(context.Background(), "u1", sampleEntries("A", "B"))
	if report.Outcome != models.SweepOutcomeUnreachable {
		t.Fatalf("expected unreachable outcome, got %s", report.Outcome)
	}
	if service.IsChecking("u1") {
		t.Fatal("expected no sweep running")
	}
}

func TestSweepersArePerUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	gate := NewMockConnectivityChecker(ctrl)
	prober := NewMockEntryProber(ctrl)

	entered := make(chan struct{})
	release := make(chan struct{})

	gate.EXPECT().CheckConnectivity(gomock.Any()).Return(true).Times(2)
	prober.EXPECT().Probe(gomock.Any(), "Slow", gomock.Any()).DoAndReturn(func(context.Context, string, int) ProbeResult {
		close(entered)
		<-release
		return NotFound()
	})
	prober.EXPECT().Probe(gomock.Any(), "Fast", gomock.Any()).Return(Matched("jf-fast"))

	service := NewService(gate, prober, newMemoryStore(), Options{Now: fixedNow})
	defer service.Close(context.Background())

	if !service.StartBackground("alice", sampleEntries("Slow"), TriggerAuto, nil) {
		t.Fatal("expected background sweep to start")
	}
	<-entered

	if !service.IsChecking("alice") {
		t.Fatal("expected alice to be checking")
	}
	if service.StartBackground("alice", sampleEntries("Slow"), TriggerAuto, nil) {
		t.Fatal("expected second background sweep for alice to be refused")
	}

	report := service.CheckAllMovies(context.Background(), "bob", sampleEntries("Fast"))
	if report.Outcome != models.SweepOutcomeCompleted || report.Available != 1 {
		t.Fatalf("expected bob's sweep to run independently, got %+v", report)
	}

	busy := service.CheckMovie(context.Background(), "alice", sampleEntries("Other")[0])
	if busy.Outcome != models.SweepOutcomeBusy {
		t.Fatalf("expected single check to be refused while sweeping, got %s", busy.Outcome)
	}

	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for service.IsChecking("alice") {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for alice's sweep")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if p := service.Progress("alice"); p.Current != 1 || p.IsRunning {
		t.Fatalf("unexpected progress for alice: %+v", p)
	}
}

func TestCloseCancelsBackgroundSweeps(t *testing.T) {
	ctrl := gomock.NewController(t)
	gate := NewMockConnectivityChecker(ctrl)
	prober := NewMockEntryProber(ctrl)

	entered := make(chan struct{})
	gate.EXPECT().CheckConnectivity(gomock.Any()).Return(true)
	prober.EXPECT().Probe(gomock.Any(), "A", gomock.Any()).DoAndReturn(func(ctx context.Context, _ string, _ int) ProbeResult {
		close(entered)
		<-ctx.Done()
		return Failed(ctx.Err())
	})

	service := NewService(gate, prober, newMemoryStore(), Options{Now: fixedNow})

	reports := make(chan models.SweepReport, 1)
	service.StartBackground("u1", sampleEntries("A", "B"), TriggerAuto, func(r models.SweepReport) { reports <- r })
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := service.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case r := <-reports:
		if r.Outcome != models.SweepOutcomeCancelled || r.Checked != 0 {
			t.Fatalf("expected cancelled sweep with nothing stored, got %+v", r)
		}
	default:
		t.Fatal("expected onDone to have run before Close returned")
	}

	if service.StartBackground("u1", sampleEntries("A"), TriggerAuto, nil) {
		t.Fatal("expected closed service to refuse new background sweeps")
	}
}

func TestReadOnlyCallsDoNotAllocateSweepers(t *testing.T) {
	ctrl := gomock.NewController(t)
	gate := NewMockConnectivityChecker(ctrl)
	prober := NewMockEntryProber(ctrl)

	entered := make(chan struct{})
	release := make(chan struct{})
	gate.EXPECT().CheckConnectivity(gomock.Any()).Return(true)
	prober.EXPECT().Probe(gomock.Any(), "Slow", gomock.Any()).DoAndReturn(func(context.Context, string, int) ProbeResult {
		close(entered)
		<-release
		return NotFound()
	})

	service := NewService(gate, prober, newMemoryStore(), Options{Now: fixedNow})
	defer service.Close(context.Background())

	if got := service.Progress("nobody"); got != (models.SweepProgress{}) {
		t.Fatalf("expected zero progress for unknown user, got %+v", got)
	}
	if service.IsChecking("nobody") {
		t.Fatal("expected unknown user not to be checking")
	}
	service.mu.Lock()
	allocated := len(service.sweepers)
	service.mu.Unlock()
	if allocated != 0 {
		t.Fatalf("expected no sweepers after read-only calls, got %d", allocated)
	}

	// Padded ids address the same sweeper.
	if !service.StartBackground(" alice ", sampleEntries("Slow"), TriggerAuto, nil) {
		t.Fatal("expected background sweep to start")
	}
	<-entered
	if !service.IsChecking("alice") || !service.Progress("alice").IsRunning {
		t.Fatal("expected trimmed id to see the running sweep")
	}
	close(release)
}
