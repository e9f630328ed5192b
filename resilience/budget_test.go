package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/ecaspace/slice"
)

func TestNewBudget_Defaults(t *testing.T) {
	b := NewBudget(BudgetConfig{})
	if b.Config().Frame != DefaultFrame {
		t.Errorf("Frame = %v, want %v", b.Config().Frame, DefaultFrame)
	}
}

func TestBudget_ExecuteSuccess(t *testing.T) {
	b := NewBudget(BudgetConfig{Frame: time.Second})

	executed := false
	err := b.Execute(context.Background(), func(ctx context.Context) error {
		executed = true
		if _, ok := ctx.Deadline(); !ok {
			t.Error("op context has no deadline")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !executed {
		t.Error("Operation was not executed")
	}
}

func TestBudget_ExecuteError(t *testing.T) {
	b := NewBudget(BudgetConfig{Frame: time.Second})
	testErr := errors.New("test error")

	err := b.Execute(context.Background(), func(context.Context) error { return testErr })
	if !errors.Is(err, testErr) {
		t.Errorf("Execute() error = %v, want %v", err, testErr)
	}
	if errors.Is(err, slice.ErrCancelled) {
		t.Error("plain errors should not be reported as cancelled")
	}
}

func TestBudget_DeadlineMapsToCancelled(t *testing.T) {
	b := NewBudget(BudgetConfig{Frame: 5 * time.Millisecond})

	err := b.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, slice.ErrCancelled) {
		t.Errorf("Execute() error = %v, want ErrCancelled", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Execute() error = %v, should wrap DeadlineExceeded", err)
	}
}

func TestBudget_KeepsCancelledErrors(t *testing.T) {
	b := NewBudget(BudgetConfig{Frame: time.Second})
	want := slice.ErrCancelled

	err := b.Execute(context.Background(), func(context.Context) error { return want })
	if err != want {
		t.Errorf("Execute() error = %v, want unchanged %v", err, want)
	}
}

func TestRun_ReturnsValue(t *testing.T) {
	b := NewBudget(BudgetConfig{})
	v, err := Run(context.Background(), b, func(context.Context) (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Errorf("Run() = (%d, %v), want (42, nil)", v, err)
	}

	v, err = Run(context.Background(), b, func(context.Context) (int, error) { return 7, errors.New("boom") })
	if err == nil || v != 0 {
		t.Errorf("Run() = (%d, %v), want zero value and error", v, err)
	}
}
