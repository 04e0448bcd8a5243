package http

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/fwojciec/lectern"
)

// transientMessages are error fragments of I/O failures that usually clear
// on a second attempt.
var transientMessages = []string{
	"unexpected eof",
	"connection reset by peer",
	"broken pipe",
	"server closed idle connection",
	"tls handshake timeout",
	"http2: stream",
	"http2: server sent goaway",
	"use of closed network connection",
}

// Classify maps a transport error to a network error kind. Cancellation of
// ctx by the caller is never retryable; an expired deadline is a timeout.
func Classify(ctx context.Context, err error) lectern.NetworkErrorKind {
	if err == nil {
		return lectern.KindOther
	}
	if ctx != nil && errors.Is(ctx.Err(), context.Canceled) {
		return lectern.KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return lectern.KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return lectern.KindCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return lectern.KindTimeout
		}
		return lectern.KindDNS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return lectern.KindTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return lectern.KindConnection
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return lectern.KindConnection
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return lectern.KindTransient
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return lectern.KindTransient
		}
	}
	if strings.Contains(msg, "connection refused") {
		return lectern.KindConnection
	}
	if strings.Contains(msg, "no such host") {
		return lectern.KindDNS
	}

	return lectern.KindOther
}
