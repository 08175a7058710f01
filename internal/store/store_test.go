package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"printforge/internal/models"
)

func draft(name string) models.OrderDraft {
	return models.OrderDraft{
		CustomerName:  name,
		FileName:      "part.stl",
		FileSizeBytes: 1024,
		Pricing:       models.PriceBreakdown{TotalPrice: 26.00},
	}
}

func TestInsertAssignsSequentialIDs(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	first := s.Insert(ctx, draft("alice"))
	second := s.Insert(ctx, draft("bob"))

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if first.Status != models.StatusPending {
		t.Fatalf("new order status = %q, want pending", first.Status)
	}
	if first.CreatedAt.IsZero() {
		t.Fatalf("created_at not stamped")
	}
}

func TestConcurrentInsertsProduceUniqueIDs(t *testing.T) {
	const n = 64
	s := New(nil)
	ctx := context.Background()

	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.Insert(ctx, draft("concurrent")).ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	for want := int64(1); want <= n; want++ {
		if !seen[want] {
			t.Fatalf("missing id %d", want)
		}
	}
	if got := len(s.List()); got != n {
		t.Fatalf("expected %d orders, got %d", n, got)
	}
}

func TestGet(t *testing.T) {
	s := New(nil)
	inserted := s.Insert(context.Background(), draft("alice"))

	got, err := s.Get(inserted.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CustomerName != "alice" {
		t.Fatalf("customer = %q, want alice", got.CustomerName)
	}

	if _, err := s.Get(99); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	order := s.Insert(ctx, draft("alice"))

	updated, err := s.UpdateStatus(ctx, order.ID, models.StatusInProgress)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != models.StatusInProgress {
		t.Fatalf("status = %q, want in_progress", updated.Status)
	}

	if _, err := s.UpdateStatus(ctx, order.ID, "shipped"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := s.UpdateStatus(ctx, 42, models.StatusCompleted); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestUpdateStatusIf(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	order := s.Insert(ctx, draft("alice"))

	updated, err := s.UpdateStatusIf(ctx, order.ID, models.StatusInProgress, func(current models.Status) error {
		if current != models.StatusPending {
			t.Fatalf("check saw %q, want pending", current)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateStatusIf: %v", err)
	}
	if updated.Status != models.StatusInProgress {
		t.Fatalf("status = %q, want in_progress", updated.Status)
	}

	// A rejecting check surfaces its error and leaves the order alone.
	rejected := errors.New("not allowed")
	if _, err := s.UpdateStatusIf(ctx, order.ID, models.StatusCompleted, func(models.Status) error {
		return rejected
	}); !errors.Is(err, rejected) {
		t.Fatalf("expected check error, got %v", err)
	}
	got, _ := s.Get(order.ID)
	if got.Status != models.StatusInProgress {
		t.Fatalf("rejected check changed the order: %q", got.Status)
	}
}

func TestReturnedOrdersAreCopies(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	order := s.Insert(ctx, draft("alice"))

	order.CustomerName = "mallory"
	got, err := s.Get(order.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CustomerName != "alice" {
		t.Fatalf("store order mutated through returned copy")
	}

	list := s.List()
	list[0].Status = models.StatusCancelled
	got, _ = s.Get(order.ID)
	if got.Status != models.StatusPending {
		t.Fatalf("store order mutated through List copy")
	}
}

func TestListAndRecentOrdering(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, name := range names {
		s.Insert(ctx, draft(name))
	}

	list := s.List()
	if len(list) != len(names) {
		t.Fatalf("List length = %d, want %d", len(list), len(names))
	}
	for i, order := range list {
		if order.CustomerName != names[i] {
			t.Fatalf("List[%d] = %q, want %q", i, order.CustomerName, names[i])
		}
	}

	recent := s.Recent(5)
	if len(recent) != 5 {
		t.Fatalf("Recent length = %d, want 5", len(recent))
	}
	want := []string{"g", "f", "e", "d", "c"}
	for i, order := range recent {
		if order.CustomerName != want[i] {
			t.Fatalf("Recent[%d] = %q, want %q", i, order.CustomerName, want[i])
		}
	}

	if got := s.Recent(20); len(got) != len(names) {
		t.Fatalf("Recent beyond size returned %d orders, want %d", len(got), len(names))
	}
	if got := s.Recent(0); len(got) != 0 {
		t.Fatalf("Recent(0) returned %d orders", len(got))
	}
	if got := s.Recent(-1); len(got) != 0 {
		t.Fatalf("Recent(-1) returned %d orders", len(got))
	}
}

type recordingJournal struct {
	mu       sync.Mutex
	appends  []int64
	statuses map[int64]models.Status
	fail     bool
}

func (j *recordingJournal) AppendOrder(_ context.Context, order *models.Order) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.fail {
		return errors.New("journal down")
	}
	j.appends = append(j.appends, order.ID)
	return nil
}

func (j *recordingJournal) UpdateOrderStatus(_ context.Context, id int64, status models.Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.fail {
		return errors.New("journal down")
	}
	if j.statuses == nil {
		j.statuses = make(map[int64]models.Status)
	}
	j.statuses[id] = status
	return nil
}

func TestJournalWriteThrough(t *testing.T) {
	journal := &recordingJournal{}
	s := New(journal)
	ctx := context.Background()

	order := s.Insert(ctx, draft("alice"))
	if _, err := s.UpdateStatus(ctx, order.ID, models.StatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if len(journal.appends) != 1 || journal.appends[0] != order.ID {
		t.Fatalf("journal appends = %v", journal.appends)
	}
	if journal.statuses[order.ID] != models.StatusInProgress {
		t.Fatalf("journal status = %q", journal.statuses[order.ID])
	}
}

func TestJournalFailureDoesNotSurface(t *testing.T) {
	s := New(&recordingJournal{fail: true})
	ctx := context.Background()

	order := s.Insert(ctx, draft("alice"))
	if order.ID != 1 {
		t.Fatalf("insert failed under broken journal")
	}
	if _, err := s.UpdateStatus(ctx, order.ID, models.StatusCancelled); err != nil {
		t.Fatalf("status update surfaced journal error: %v", err)
	}
}
