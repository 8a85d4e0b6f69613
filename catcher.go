package noserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wrale/oauth2-noserver/internal/state"
	"github.com/wrale/oauth2-noserver/internal/templates"
)

const (
	// loopbackHost is the only interface the callback listener binds to
	loopbackHost = "127.0.0.1"

	// placeholderBase turns an origin-form request target into a parseable URL
	placeholderBase = "http://localhost"

	maxRequestLine = 8 << 10
	maxDrain       = 64 << 10

	writeTimeout   = 5 * time.Second
	defaultLinger  = 250 * time.Millisecond
	fallbackPageOK = templates.DefaultSuccessMessage + "\n"
)

var errLineTooLong = errors.New("request line too long")

// CapturedCode is what one redirect delivered
type CapturedCode struct {
	Code  string
	State string
	// Path is the request path the redirect arrived on
	Path string
}

// Catcher captures a single OAuth2 redirect on a loopback listener.
// A Catcher holds no per-call state and may be shared.
type Catcher struct {
	logger logrus.FieldLogger
	pages  *templates.Pages
	linger time.Duration
}

// NewCatcher creates a Catcher; a nil logger means logrus.StandardLogger()
func NewCatcher(logger logrus.FieldLogger) *Catcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	pages, err := templates.LoadPages()
	if err != nil {
		logger.WithError(err).Warn("loading confirmation pages, falling back to fixed text")
	}
	return &Catcher{logger: logger, pages: pages, linger: defaultLinger}
}

// PendingCallback is a bound listener waiting for the redirect. It is owned by
// the caller that created it and released by Wait or Close.
type PendingCallback struct {
	catcher  *Catcher
	listener net.Listener
	port     int
	deadline time.Time

	closeOnce sync.Once
	closeErr  error
}

// WaitForCode binds 127.0.0.1:port, waits at most timeout for one request,
// answers it and returns the captured code. The listener is released before
// WaitForCode returns on every path.
func (c *Catcher) WaitForCode(ctx context.Context, port int, expectedState string, timeout time.Duration) (*CapturedCode, error) {
	pending, err := c.Listen(ctx, port, timeout)
	if err != nil {
		return nil, err
	}
	return pending.Wait(ctx, expectedState)
}

// Listen binds the loopback listener and starts the time budget. Port 0 binds
// an ephemeral port, reported by PendingCallback.Port. A non-positive timeout
// means DefaultTimeout.
func (c *Catcher) Listen(ctx context.Context, port int, timeout time.Duration) (*PendingCallback, error) {
	if port < 0 || port > 65535 {
		return nil, newError(KindBind, "listen", fmt.Errorf("port %d out of range", port))
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp4", net.JoinHostPort(loopbackHost, strconv.Itoa(port)))
	if err != nil {
		return nil, newError(KindBind, "listen", err)
	}

	bound := ln.Addr().(*net.TCPAddr).Port
	c.logger.WithField("port", bound).Debug("callback listener bound")

	return &PendingCallback{
		catcher:  c,
		listener: ln,
		port:     bound,
		deadline: time.Now().Add(timeout),
	}, nil
}

// Port returns the bound port
func (p *PendingCallback) Port() int { return p.port }

// Deadline returns the instant the wait gives up
func (p *PendingCallback) Deadline() time.Time { return p.deadline }

// Close releases the listener. It is safe to call more than once.
func (p *PendingCallback) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.listener.Close()
		p.catcher.logger.WithField("port", p.port).Debug("callback listener released")
	})
	return p.closeErr
}

type acceptResult struct {
	conn net.Conn
	err  error
}

// Wait accepts exactly one connection, parses its request line, answers with a
// confirmation page and returns the code. The listener is closed as soon as the
// first connection is accepted or the deadline passes, whichever is first.
func (p *PendingCallback) Wait(ctx context.Context, expectedState string) (*CapturedCode, error) {
	defer p.Close()

	ctx, cancel := context.WithDeadline(ctx, p.deadline)
	defer cancel()

	accepted := make(chan acceptResult, 1)
	go func() {
		conn, err := p.listener.Accept()
		accepted <- acceptResult{conn: conn, err: err}
	}()

	var res acceptResult
	select {
	case res = <-accepted:
		_ = p.Close()
	case <-ctx.Done():
		// Closing the listener unblocks Accept; join the acceptor before returning.
		_ = p.Close()
		res = <-accepted
		if res.conn != nil {
			_ = res.conn.Close()
		}
		return nil, contextError(ctx, "accept")
	}

	if res.err != nil {
		if errors.Is(res.err, net.ErrClosed) {
			return nil, newError(KindCanceled, "accept", res.err)
		}
		return nil, newError(KindBind, "accept", res.err)
	}

	return p.catcher.handle(ctx, res.conn, expectedState)
}

func (c *Catcher) handle(ctx context.Context, conn net.Conn, expectedState string) (*CapturedCode, error) {
	defer conn.Close()

	// Cancellation interrupts blocked reads and writes.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	br := bufio.NewReaderSize(conn, maxRequestLine)
	line, err := readRequestLine(br)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			// The conn deadline mirrors ctx, which is done or about to be.
			<-ctx.Done()
		}
		if ctx.Err() != nil {
			return nil, contextError(ctx, "read")
		}
		merr := newError(KindMalformedRequest, "read", err)
		if errors.Is(err, errLineTooLong) {
			c.respond(ctx, conn, br, merr)
		}
		return nil, merr
	}

	captured, cerr := parseCallback(line, expectedState)
	c.log(captured, cerr)
	c.respond(ctx, conn, br, cerr)
	return captured, cerr
}

func readRequestLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return "", errLineTooLong
		}
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("connection closed before request line: %w", io.ErrUnexpectedEOF)
		}
		return "", err
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line), nil
}

// parseCallback interprets "GET /path?query HTTP/1.1". Error messages never
// echo the query, which carries the code.
func parseCallback(line, expectedState string) (*CapturedCode, error) {
	method, rest, ok1 := strings.Cut(line, " ")
	target, proto, ok2 := strings.Cut(rest, " ")
	if !ok1 || !ok2 || method == "" || target == "" || !strings.HasPrefix(proto, "HTTP/") || strings.Contains(proto, " ") {
		return nil, newError(KindMalformedRequest, "parse", errors.New("not an HTTP request line"))
	}
	if method != "GET" {
		return nil, newError(KindMalformedRequest, "parse", fmt.Errorf("unexpected method %q", method))
	}

	u, err := parseTarget(target)
	if err != nil {
		return nil, newError(KindMalformedRequest, "parse", err)
	}
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, newError(KindMalformedRequest, "parse", errors.New("invalid query string"))
	}

	if code := values.Get("error"); code != "" {
		return nil, &Error{
			Kind:        KindProvider,
			Op:          "callback",
			Code:        code,
			Description: values.Get("error_description"),
		}
	}

	code := values.Get("code")
	if code == "" {
		return nil, newError(KindMissingCode, "callback", nil)
	}

	returned := values.Get("state")
	if !state.Equal(expectedState, returned) {
		return nil, newError(KindStateMismatch, "callback", nil)
	}

	return &CapturedCode{Code: code, State: returned, Path: u.Path}, nil
}

func parseTarget(target string) (*url.URL, error) {
	if strings.HasPrefix(target, "/") {
		u, err := url.Parse(placeholderBase + target)
		if err != nil {
			return nil, errors.New("invalid request target")
		}
		return u, nil
	}
	// absolute-form, as sent through a proxy
	u, err := url.ParseRequestURI(target)
	if err != nil || !u.IsAbs() {
		return nil, errors.New("invalid request target")
	}
	return u, nil
}

func (c *Catcher) log(captured *CapturedCode, err error) {
	if err == nil {
		c.logger.WithField("path", captured.Path).Debug("authorization code captured")
		return
	}
	entry := c.logger.WithField("kind", KindOf(err).String())
	switch KindOf(err) {
	case KindStateMismatch:
		entry.Warn("callback state does not match, possible CSRF attempt")
	case KindProvider:
		var e *Error
		errors.As(err, &e)
		entry.WithField("error", e.Code).Warn("provider returned an error")
	default:
		entry.WithError(err).Warn("callback rejected")
	}
}

// respond always answers 200 so the browser tab settles on a terminal page.
func (c *Catcher) respond(ctx context.Context, conn net.Conn, br *bufio.Reader, cerr error) {
	body := c.page(cerr)

	deadline := time.Now().Add(writeTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetWriteDeadline(deadline)

	header := fmt.Sprintf("HTTP/1.1 200 OK\r\n"+
		"content-type: text/plain; charset=utf-8\r\n"+
		"content-length: %d\r\n"+
		"cache-control: no-store\r\n"+
		"connection: close\r\n\r\n", len(body))
	if _, err := io.WriteString(conn, header); err != nil {
		c.logger.WithError(err).Debug("writing confirmation page")
		return
	}
	if _, err := conn.Write(body); err != nil {
		c.logger.WithError(err).Debug("writing confirmation page")
		return
	}

	// Half-close and drain the unread headers so the peer sees the page
	// rather than a reset.
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	linger := time.Now().Add(c.linger)
	if linger.Before(deadline) {
		_ = conn.SetReadDeadline(linger)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(br, maxDrain))
}

func (c *Catcher) page(cerr error) []byte {
	if c.pages == nil {
		if cerr == nil {
			return []byte(fallbackPageOK)
		}
		return []byte("Authorization failed. Go back to your terminal for more information.\n")
	}

	body, err := templates.RenderToBytes(func(w io.Writer) error {
		if cerr == nil {
			return c.pages.RenderSuccess(w, templates.SuccessData{})
		}
		return c.pages.RenderFailure(w, failureData(cerr))
	})
	if err != nil {
		c.logger.WithError(err).Warn("rendering confirmation page")
		return []byte(fallbackPageOK)
	}
	return body
}

func failureData(err error) templates.FailureData {
	var e *Error
	errors.As(err, &e)
	switch KindOf(err) {
	case KindProvider:
		return templates.FailureData{
			Title:   e.Code,
			Message: "The provider did not grant access.",
			Detail:  e.Description,
		}
	case KindStateMismatch:
		return templates.FailureData{
			Title:   "state mismatch",
			Message: "This response does not belong to the sign-in in progress and was ignored.",
		}
	case KindMissingCode:
		return templates.FailureData{
			Title:   "missing code",
			Message: "The redirect did not carry an authorization code.",
		}
	default:
		return templates.FailureData{
			Title:   "malformed request",
			Message: "The redirect could not be understood.",
		}
	}
}

func contextError(ctx context.Context, op string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newError(KindTimeout, op, ctx.Err())
	}
	return newError(KindCanceled, op, ctx.Err())
}
