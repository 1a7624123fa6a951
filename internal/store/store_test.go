package store

import (
	"bytes"
	"testing"
	"time"
)

func TestSaveRetrieveRoundTrip(t *testing.T) {
	s := New()

	if _, err := s.Save("a", []byte("one")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	v, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != "one" {
		t.Fatalf("Get = %q, want %q", v, "one")
	}
}

func TestSaveEmptyKey(t *testing.T) {
	s := New()
	if _, err := s.Save("", []byte("x")); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestGetMissingKey(t *testing.T) {
	s := New()
	if _, err := s.Get("nope"); err == nil {
		t.Fatal("expected NotFound for missing key")
	}
}

func TestHistoryMonotonicity(t *testing.T) {
	s := New()
	s.Save("a", []byte("one"))
	s.Save("a", []byte("two"))

	hist, err := s.History("a", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(hist))
	}
	if !bytes.Equal(hist[0].Content, []byte("two")) {
		t.Fatalf("history[0] = %q, want %q", hist[0].Content, "two")
	}
	if !bytes.Equal(hist[1].Content, []byte("one")) {
		t.Fatalf("history[1] = %q, want %q", hist[1].Content, "one")
	}
	if hist[0].Timestamp.Before(hist[1].Timestamp) {
		t.Fatal("timestamps not non-decreasing")
	}
}

func TestHistoryOnNeverExisting(t *testing.T) {
	s := New()
	if _, err := s.History("nope", 0); err == nil {
		t.Fatal("expected NotFound for key that never existed")
	}
}

func TestHistoryLimit(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Save("a", []byte{byte(i)})
	}
	hist, err := s.History("a", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(hist))
	}
}

func TestMaxHistoryPerKey(t *testing.T) {
	s := New(WithMaxHistoryPerKey(3))
	for i := 0; i < 10; i++ {
		s.Save("a", []byte{byte(i)})
	}
	hist, err := s.History("a", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("len(history) = %d, want 3 (bounded)", len(hist))
	}
	if hist[0].Content[0] != 9 {
		t.Fatalf("newest retained entry = %d, want 9", hist[0].Content[0])
	}
}

func TestTimeRange(t *testing.T) {
	var now time.Time
	s := New(WithClock(func() time.Time { return now }))

	now = time.Unix(100, 0)
	s.Save("a", []byte("t100"))
	now = time.Unix(200, 0)
	s.Save("a", []byte("t200"))
	now = time.Unix(300, 0)
	s.Save("a", []byte("t300"))

	recs, err := s.TimeRange("a", time.Unix(150, 0), time.Unix(250, 0))
	if err != nil {
		t.Fatalf("TimeRange: %v", err)
	}
	if len(recs) != 1 || string(recs[0].Content) != "t200" {
		t.Fatalf("TimeRange = %+v, want single t200 record", recs)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New()
	s.Save("a", []byte("one"))
	s.Save("a", []byte("two"))
	s.Save("b", []byte("hello"))

	var buf bytes.Buffer
	if err := s.Snapshot(&buf); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restored := New()
	if err := restored.Restore(&buf); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	v, err := restored.Get("a")
	if err != nil || string(v) != "two" {
		t.Fatalf("restored Get(a) = %q, %v", v, err)
	}
	hist, err := restored.History("a", 0)
	if err != nil || len(hist) != 2 {
		t.Fatalf("restored History(a) = %+v, %v", hist, err)
	}
}
