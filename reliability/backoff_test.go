package reliability

import (
	"errors"
	"testing"
	"time"
)

func TestAwaitAck_RetransmitsThenSucceeds(t *testing.T) {
	cfg := Config{AckTimeout: 5 * time.Millisecond, AckRandomFactor: 130, MaxRetransmit: 3}

	var waits []time.Duration
	retransmits := 0

	calls := 0
	wait := func(d time.Duration) (bool, error) {
		waits = append(waits, d)
		calls++
		return calls == 3, nil // succeed on the third wait
	}
	retransmit := func() error {
		retransmits++
		return nil
	}

	if err := AwaitAck(cfg, wait, retransmit); err != nil {
		t.Fatalf("AwaitAck() error = %v", err)
	}
	if retransmits != 2 {
		t.Fatalf("retransmits = %d, want 2", retransmits)
	}
	if len(waits) != 3 {
		t.Fatalf("waits = %d, want 3", len(waits))
	}
	if waits[0] != cfg.AckTimeout {
		t.Fatalf("waits[0] = %v, want %v", waits[0], cfg.AckTimeout)
	}
}

func TestAwaitAck_ExhaustsRetransmissions(t *testing.T) {
	cfg := Config{AckTimeout: time.Millisecond, AckRandomFactor: 130, MaxRetransmit: 3}

	waitCalls := 0
	retransmitCalls := 0
	wait := func(time.Duration) (bool, error) {
		waitCalls++
		return false, nil
	}
	retransmit := func() error {
		retransmitCalls++
		return nil
	}

	err := AwaitAck(cfg, wait, retransmit)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("AwaitAck() error = %v, want ErrTimeout", err)
	}
	if waitCalls != cfg.MaxRetransmit+1 {
		t.Fatalf("waitCalls = %d, want %d", waitCalls, cfg.MaxRetransmit+1)
	}
	if retransmitCalls != cfg.MaxRetransmit {
		t.Fatalf("retransmitCalls = %d, want %d", retransmitCalls, cfg.MaxRetransmit)
	}
}

func TestAwaitAck_RetransmitError(t *testing.T) {
	cfg := Config{AckTimeout: time.Millisecond, AckRandomFactor: 100, MaxRetransmit: 2}
	boom := errors.New("boom")

	wait := func(time.Duration) (bool, error) { return false, nil }
	retransmit := func() error { return boom }

	if err := AwaitAck(cfg, wait, retransmit); !errors.Is(err, boom) {
		t.Fatalf("AwaitAck() error = %v, want %v", err, boom)
	}
}
