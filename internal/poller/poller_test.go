package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/careloop/kiosk/domain/entities"
)

type fakeActionService struct {
	mu      sync.Mutex
	batches [][]entities.DeviceAction
	errs    []error
	calls   int
}

func (f *fakeActionService) NextActions(ctx context.Context, careReceiverID string) ([]entities.DeviceAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.batches) {
		return f.batches[i], nil
	}
	if len(f.batches) > 0 {
		return f.batches[len(f.batches)-1], nil
	}
	return nil, nil
}

func (f *fakeActionService) SubmitResponse(ctx context.Context, actionID string, response entities.ResponseChoice) error {
	return nil
}

func (f *fakeActionService) SubmitHelpRequest(ctx context.Context, message string) error {
	return nil
}

func TestPollerFetchesAndNotifies(t *testing.T) {
	service := &fakeActionService{
		batches: [][]entities.DeviceAction{
			{{ID: "a1", Kind: entities.ActionSpeakReminder, TextToSpeak: "hi"}},
		},
	}
	p := New(service, "cr-1", 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case <-p.Updates():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update signal")
	}

	actions := p.Actions()
	if len(actions) != 1 || actions[0].ID != "a1" {
		t.Errorf("Actions() = %+v", actions)
	}
}

func TestPollerEmptySnapshotOnError(t *testing.T) {
	service := &fakeActionService{
		batches: [][]entities.DeviceAction{
			{{ID: "a1", Kind: entities.ActionSpeakReminder, TextToSpeak: "hi"}},
		},
		errs: []error{nil, errors.New("backend down")},
	}
	p := New(service, "cr-1", time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	p.fetch(ctx)
	if actions := p.Actions(); len(actions) != 1 {
		t.Fatalf("Actions() after successful fetch = %+v", actions)
	}

	p.fetch(ctx)
	if actions := p.Actions(); len(actions) != 0 {
		t.Errorf("failed fetch must yield an empty snapshot, got %+v", actions)
	}
}

func TestPollerRefresh(t *testing.T) {
	service := &fakeActionService{
		batches: [][]entities.DeviceAction{
			{{ID: "a1", Kind: entities.ActionSpeakReminder, TextToSpeak: "hi"}},
		},
	}
	p := New(service, "cr-1", time.Hour, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case <-p.Updates():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial fetch")
	}

	p.Refresh()
	time.Sleep(30 * time.Millisecond)

	service.mu.Lock()
	calls := service.calls
	service.mu.Unlock()
	if calls < 2 {
		t.Errorf("calls = %d, want at least 2 after Refresh", calls)
	}
}

func TestPollerActionsReturnsCopy(t *testing.T) {
	service := &fakeActionService{
		batches: [][]entities.DeviceAction{
			{{ID: "a1", Kind: entities.ActionSpeakReminder, TextToSpeak: "hi"}},
		},
	}
	p := New(service, "cr-1", time.Hour, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case <-p.Updates():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial fetch")
	}

	first := p.Actions()
	first[0].ID = "mutated"
	second := p.Actions()
	if second[0].ID != "a1" {
		t.Error("Actions() does not return a copy")
	}
}
