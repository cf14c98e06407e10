package log

import (
	"errors"
	"io"
)

// MultiWriter fans each formatted entry out to the console and any file
// appender. Every appender sees every entry, even after another one failed.
type MultiWriter struct {
	appenders []io.Writer
	owned     []io.Closer // appenders opened by the logger itself
}

// NewMultiWriter returns a writer with no appenders.
func NewMultiWriter() *MultiWriter {
	return &MultiWriter{}
}

// Add appends w. The caller keeps ownership of w.
func (m *MultiWriter) Add(w io.Writer) *MultiWriter {
	m.appenders = append(m.appenders, w)
	return m
}

// Write reports the whole entry as written and joins the appender errors.
func (m *MultiWriter) Write(p []byte) (int, error) {
	var errs []error
	for _, w := range m.appenders {
		if _, err := w.Write(p); err != nil {
			errs = append(errs, err)
		}
	}
	return len(p), errors.Join(errs...)
}

// Close releases the appenders the writer opened, such as the log file.
func (m *MultiWriter) Close() error {
	var errs []error
	for _, c := range m.owned {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.owned = nil
	return errors.Join(errs...)
}
