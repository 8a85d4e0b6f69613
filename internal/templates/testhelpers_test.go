package templates

import (
	"strings"
	"testing"
)

// recordingWriter captures rendered output and counts writes
type recordingWriter struct {
	written    []byte
	writeCount int
}

func (m *recordingWriter) Write(b []byte) (int, error) {
	m.written = append(m.written, b...)
	m.writeCount++
	return len(b), nil
}

// Written returns the accumulated written bytes as a string
func (m *recordingWriter) Written() string {
	return string(m.written)
}

// Contains checks if the written content contains all the given strings
func (m *recordingWriter) Contains(ss ...string) bool {
	content := m.Written()
	for _, s := range ss {
		if !strings.Contains(content, s) {
			return false
		}
	}
	return true
}

// setupPages loads the embedded pages for testing
func setupPages(t *testing.T) *Pages {
	t.Helper()
	pages, err := LoadPages()
	if err != nil {
		t.Fatalf("failed to load pages: %v", err)
	}
	return pages
}
