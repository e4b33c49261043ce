package logger

import (
	"tracklog-go/errcode"
	"tracklog-go/types"
)

// session owns one open log file. Flushes always end with a sync so a later
// card pull costs at most the unflushed buffer, and a failed flush is retried
// once through a close-and-reopen before the session is given up.
type session struct {
	med  types.Medium
	file types.File
	name string
}

// startSession allocates a file name from the sample's date, creates the
// file and writes the header.
func startSession(med types.Medium, s types.GPSSample) (*session, error) {
	name := allocateName(med, s)
	f, err := med.Create(name)
	if err != nil {
		return nil, &errcode.E{C: errcode.OpenFailed, Op: "logger.start", Msg: name, Err: err}
	}
	if n, err := f.Write([]byte(headerLine)); err != nil || n != len(headerLine) {
		f.Close()
		return nil, &errcode.E{C: errcode.WriteError, Op: "logger.start", Msg: name, Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, &errcode.E{C: errcode.WriteError, Op: "logger.start", Msg: name, Err: err}
	}
	return &session{med: med, file: f, name: name}, nil
}

// flush writes the buffered records out and syncs. On a short or failed
// write the committed prefix is discarded, the file handle is cycled, and
// the remainder is retried once. A second failure is terminal for the
// session; the caller must stop logging.
func (s *session) flush(buf *recordBuffer) error {
	if len(buf.Bytes()) == 0 {
		return nil
	}

	n, err := s.file.Write(buf.Bytes())
	if err == nil && n == len(buf.Bytes()) {
		buf.Reset()
		return s.syncOrFail()
	}
	buf.Discard(n)

	s.file.Close()
	f, reopenErr := s.med.OpenAppend(s.name)
	if reopenErr != nil {
		return &errcode.E{C: errcode.WriteError, Op: "logger.flush", Msg: s.name, Err: reopenErr}
	}
	s.file = f

	n, err = s.file.Write(buf.Bytes())
	if err != nil || n != len(buf.Bytes()) {
		buf.Discard(n)
		return &errcode.E{C: errcode.WriteError, Op: "logger.flush", Msg: s.name, Err: err}
	}
	buf.Reset()
	return s.syncOrFail()
}

func (s *session) syncOrFail() error {
	if err := s.file.Sync(); err != nil {
		return &errcode.E{C: errcode.WriteError, Op: "logger.sync", Msg: s.name, Err: err}
	}
	return nil
}

// close flushes what it can and releases the file. The flush error, if any,
// is reported; Close itself is best effort.
func (s *session) close(buf *recordBuffer) error {
	err := s.flush(buf)
	s.file.Close()
	return err
}
