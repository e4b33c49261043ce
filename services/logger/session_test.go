package logger

import (
	"errors"
	"strings"
	"testing"

	"tracklog-go/errcode"
	"tracklog-go/platform"
)

func TestSession_StartWritesHeader(t *testing.T) {
	med := platform.NewMemMedium(true)
	s, err := startSession(med, dateSample(2025, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if s.name != "L25010100.CSV" {
		t.Fatalf("name = %q", s.name)
	}
	got, ok := med.FileBytes(s.name)
	if !ok || string(got) != headerLine {
		t.Fatalf("file contents = %q, want header", got)
	}
}

func TestSession_StartWithoutMedium(t *testing.T) {
	med := platform.NewMemMedium(false)
	_, err := startSession(med, dateSample(2025, 1, 1))
	if err == nil {
		t.Fatal("expected error with medium absent")
	}
	if errcode.Of(err) != errcode.OpenFailed {
		t.Fatalf("code = %v, want open_failed", errcode.Of(err))
	}
}

func TestSession_FlushAppendsAndClearsBuffer(t *testing.T) {
	med := platform.NewMemMedium(true)
	s, err := startSession(med, dateSample(2025, 1, 1))
	if err != nil {
		t.Fatal(err)
	}

	buf := newRecordBuffer(8, 4)
	buf.Append([]byte("aaaaaaa\n"))
	buf.Append([]byte("bbbbbbb\n"))
	if err := s.flush(buf); err != nil {
		t.Fatal(err)
	}
	if buf.Records() != 0 {
		t.Fatal("buffer not cleared by flush")
	}
	got, _ := med.FileBytes(s.name)
	if string(got) != headerLine+"aaaaaaa\nbbbbbbb\n" {
		t.Fatalf("file contents = %q", got)
	}
}

func TestSession_FlushRetriesOnceOnShortWrite(t *testing.T) {
	med := platform.NewMemMedium(true)
	s, err := startSession(med, dateSample(2025, 1, 1))
	if err != nil {
		t.Fatal(err)
	}

	buf := newRecordBuffer(8, 4)
	buf.Append([]byte("aaaaaaa\n"))
	buf.Append([]byte("bbbbbbb\n"))

	med.ShortNextWrites(1) // first flush write commits half
	if err := s.flush(buf); err != nil {
		t.Fatalf("flush with one short write must recover: %v", err)
	}
	got, _ := med.FileBytes(s.name)
	if !strings.HasSuffix(string(got), "aaaaaaa\nbbbbbbb\n") {
		t.Fatalf("records incomplete after retry: %q", got)
	}
	if buf.Records() != 0 {
		t.Fatal("buffer not cleared after recovered flush")
	}
}

func TestSession_FlushFailsAfterSecondError(t *testing.T) {
	med := platform.NewMemMedium(true)
	s, err := startSession(med, dateSample(2025, 1, 1))
	if err != nil {
		t.Fatal(err)
	}

	buf := newRecordBuffer(8, 4)
	buf.Append([]byte("aaaaaaa\n"))

	med.FailNextWrites(2) // initial attempt and the reopen retry
	err = s.flush(buf)
	if err == nil {
		t.Fatal("expected terminal flush error")
	}
	if errcode.Of(err) != errcode.WriteError {
		t.Fatalf("code = %v, want write_error", errcode.Of(err))
	}
}

func TestSession_FlushFailsWhenMediumGone(t *testing.T) {
	med := platform.NewMemMedium(true)
	s, err := startSession(med, dateSample(2025, 1, 1))
	if err != nil {
		t.Fatal(err)
	}

	buf := newRecordBuffer(8, 4)
	buf.Append([]byte("aaaaaaa\n"))

	med.Remove()
	err = s.flush(buf)
	if err == nil {
		t.Fatal("expected flush error with medium gone")
	}
	if !errors.Is(err, platform.ErrMediumGone) {
		t.Fatalf("cause = %v, want medium gone", err)
	}
}

func TestSession_CloseFlushesTail(t *testing.T) {
	med := platform.NewMemMedium(true)
	s, err := startSession(med, dateSample(2025, 1, 1))
	if err != nil {
		t.Fatal(err)
	}

	buf := newRecordBuffer(8, 4)
	buf.Append([]byte("ccccccc\n"))
	if err := s.close(buf); err != nil {
		t.Fatal(err)
	}
	got, _ := med.FileBytes(s.name)
	if string(got) != headerLine+"ccccccc\n" {
		t.Fatalf("file contents = %q", got)
	}
}
