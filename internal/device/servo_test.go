package device

import (
	"context"
	"errors"
	"testing"
	"time"
)

// newTestServo creates a servo that records requested sleep durations
// instead of actually sleeping.
func newTestServo(t *testing.T, initialAngle int) (*Servo, *[]time.Duration) {
	t.Helper()

	s, err := NewServo("servo-test", initialAngle)
	if err != nil {
		t.Fatalf("NewServo() error = %v", err)
	}

	var slept []time.Duration
	s.sleep = func(d time.Duration) {
		slept = append(slept, d)
	}
	return s, &slept
}

func TestNewServo_InitialAngleOutOfRange(t *testing.T) {
	for _, angle := range []int{-1, 181} {
		if _, err := NewServo("servo-test", angle); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("NewServo(%d) error = %v, want ErrOutOfRange", angle, err)
		}
	}
}

func TestServo_WriteThenRead(t *testing.T) {
	s, _ := newTestServo(t, 90)
	ctx := context.Background()

	if err := s.Write(ctx, Payload{"angle": 45}); err != nil {
		t.Fatalf("Write(angle=45) error = %v", err)
	}

	value, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if value != 45 {
		t.Errorf("Read() = %v, want 45", value)
	}
}

func TestServo_WriteValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantErr error
	}{
		{
			name:    "angle above range",
			payload: Payload{"angle": 181},
			wantErr: ErrOutOfRange,
		},
		{
			name:    "angle below range",
			payload: Payload{"angle": -1},
			wantErr: ErrOutOfRange,
		},
		{
			name:    "missing angle field",
			payload: Payload{"position": 90},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "non-numeric angle",
			payload: Payload{"angle": true},
			wantErr: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServo(t, 90)
			ctx := context.Background()

			err := s.Write(ctx, tt.payload)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Write() error = %v, want %v", err, tt.wantErr)
			}

			value, err := s.Read(ctx)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if value != 90 {
				t.Errorf("Read() after failed write = %v, want 90", value)
			}
		})
	}
}

// TestServo_MovementProportionalLatency verifies that a long sweep always
// takes longer than a short one. A 90 degree move costs at least
// base 30ms + 90x1ms = 120ms; a 5 degree move at most 70ms + 5x2ms = 80ms,
// so the comparison is strict for any random draw.
func TestServo_MovementProportionalLatency(t *testing.T) {
	far, farSlept := newTestServo(t, 90)
	near, nearSlept := newTestServo(t, 90)
	ctx := context.Background()

	if err := far.Write(ctx, Payload{"angle": 0}); err != nil {
		t.Fatalf("Write(angle=0) error = %v", err)
	}
	if err := near.Write(ctx, Payload{"angle": 95}); err != nil {
		t.Fatalf("Write(angle=95) error = %v", err)
	}

	if len(*farSlept) != 1 || len(*nearSlept) != 1 {
		t.Fatalf("expected one sleep per write, got %d and %d", len(*farSlept), len(*nearSlept))
	}

	farLatency := (*farSlept)[0]
	nearLatency := (*nearSlept)[0]
	if farLatency <= nearLatency {
		t.Errorf("90 degree move latency %s should exceed 5 degree move latency %s",
			farLatency, nearLatency)
	}
}

func TestServo_Status(t *testing.T) {
	s, _ := newTestServo(t, 120)

	status := s.Status(context.Background())

	if status.Status != StatusOnline {
		t.Errorf("Status().Status = %q, want %q", status.Status, StatusOnline)
	}
	if status.Type != TypeServo {
		t.Errorf("Status().Type = %q, want %q", status.Type, TypeServo)
	}
	if status.Value != 120 {
		t.Errorf("Status().Value = %v, want 120", status.Value)
	}
}
