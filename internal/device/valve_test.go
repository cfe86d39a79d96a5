package device

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestValve(t *testing.T, initialOpen bool) *Valve {
	t.Helper()

	v := NewValve("valve-test", initialOpen)
	v.sleep = func(time.Duration) {}
	return v
}

func TestValve_WriteThenRead(t *testing.T) {
	v := newTestValve(t, false)
	ctx := context.Background()

	if err := v.Write(ctx, Payload{"value": true}); err != nil {
		t.Fatalf("Write(value=true) error = %v", err)
	}

	value, err := v.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if value != true {
		t.Errorf("Read() = %v, want true", value)
	}

	if err := v.Write(ctx, Payload{"value": false}); err != nil {
		t.Fatalf("Write(value=false) error = %v", err)
	}

	value, err = v.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if value != false {
		t.Errorf("Read() = %v, want false", value)
	}
}

func TestValve_WriteValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
	}{
		{name: "string instead of bool", payload: Payload{"value": "yes"}},
		{name: "number instead of bool", payload: Payload{"value": 1}},
		{name: "missing value field", payload: Payload{"open": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestValve(t, true)
			ctx := context.Background()

			err := v.Write(ctx, tt.payload)
			if !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("Write() error = %v, want ErrInvalidPayload", err)
			}

			value, err := v.Read(ctx)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if value != true {
				t.Errorf("Read() after failed write = %v, want true", value)
			}
		})
	}
}

func TestValve_Status(t *testing.T) {
	v := newTestValve(t, true)

	status := v.Status(context.Background())

	if status.Status != StatusOnline {
		t.Errorf("Status().Status = %q, want %q", status.Status, StatusOnline)
	}
	if status.Type != TypeValve {
		t.Errorf("Status().Type = %q, want %q", status.Type, TypeValve)
	}
	if status.Value != true {
		t.Errorf("Status().Value = %v, want true", status.Value)
	}
}
