package noserver

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestCatcher() *Catcher {
	c := NewCatcher(quietLogger())
	c.linger = 20 * time.Millisecond
	return c
}

// freePort returns a loopback port that was free a moment ago
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserving port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := ln.Close(); err != nil {
		t.Fatalf("releasing port: %v", err)
	}
	return port
}

type callbackResponse struct {
	status        int
	contentLength int64
	body          string
	err           error
}

// sendRequestLine plays the browser: it sends line plus a Host header and
// reads the whole response
func sendRequestLine(port int, line string) callbackResponse {
	conn, err := net.DialTimeout("tcp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), 2*time.Second)
	if err != nil {
		return callbackResponse{err: err}
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := fmt.Fprintf(conn, "%s\r\nHost: localhost:%d\r\nUser-Agent: test\r\n\r\n", line, port); err != nil {
		return callbackResponse{err: err}
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		return callbackResponse{err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return callbackResponse{
		status:        resp.StatusCode,
		contentLength: resp.ContentLength,
		body:          string(body),
		err:           err,
	}
}

// callbackLine builds the request line a browser sends after a redirect
func callbackLine(pathAndQuery string) string {
	return "GET " + pathAndQuery + " HTTP/1.1"
}
