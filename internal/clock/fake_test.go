package clock_test

import (
	"testing"
	"time"

	"chatgate/internal/clock"
)

var epoch = time.Unix(1_700_000_000, 0)

func TestFake_NowOnlyMovesOnAdvance(t *testing.T) {
	fc := clock.Fake(epoch)
	if got := fc.Now(); !got.Equal(epoch) {
		t.Fatalf("Now = %v, want %v", got, epoch)
	}
	fc.Advance(90 * time.Second)
	if got, want := fc.Now(), epoch.Add(90*time.Second); !got.Equal(want) {
		t.Fatalf("Now = %v, want %v", got, want)
	}
}

func TestFake_TickerFiresAtDeadline(t *testing.T) {
	fc := clock.Fake(epoch)
	tk := fc.NewTicker(10 * time.Second)
	defer tk.Stop()

	fc.Advance(9 * time.Second)
	select {
	case <-tk.C:
		t.Fatal("fired early")
	default:
	}

	fc.Advance(time.Second)
	select {
	case got := <-tk.C:
		if want := epoch.Add(10 * time.Second); !got.Equal(want) {
			t.Fatalf("tick at %v, want %v", got, want)
		}
	default:
		t.Fatal("did not fire at deadline")
	}
}

func TestFake_TickerRepeatsAndStops(t *testing.T) {
	fc := clock.Fake(epoch)
	tk := fc.NewTicker(time.Second)

	for i := 0; i < 3; i++ {
		fc.Advance(time.Second)
		select {
		case <-tk.C:
		default:
			t.Fatalf("tick %d missing", i)
		}
	}

	tk.Stop()
	if n := fc.Pending(); n != 0 {
		t.Fatalf("Pending after Stop = %d, want 0", n)
	}
	fc.Advance(time.Second)
	select {
	case <-tk.C:
		t.Fatal("tick after Stop")
	default:
	}
}

func TestFake_WaitForTimers(t *testing.T) {
	fc := clock.Fake(epoch)
	done := make(chan struct{})
	go func() {
		tk := fc.NewTicker(time.Minute)
		defer tk.Stop()
		<-tk.C
		close(done)
	}()

	fc.WaitForTimers(1)
	fc.Advance(time.Minute)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine never woke up")
	}
}

func TestFake_NewTickerPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	clock.Fake(epoch).NewTicker(0)
}
