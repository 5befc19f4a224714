package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/sdejongh/devsync/pkg/models"
)

// ErrNotFound is returned when a path does not exist on a link
var ErrNotFound = errors.New("file not found")

// StatusError is a non-2xx response from a device
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("device returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
	}
	return fmt.Sprintf("device returned %d %s", e.Code, http.StatusText(e.Code))
}

// TransferError is a categorized link failure
type TransferError struct {
	Category models.ErrorCategory
	Op       string
	Path     string
	Err      error
}

func (e *TransferError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text for the failure. The catch-all
// category carries the underlying diagnostic.
func (e *TransferError) Message() string {
	if e.Category == models.CategoryOther && e.Err != nil {
		return fmt.Sprintf("%s (%v)", e.Category.Message(), e.Err)
	}
	return e.Category.Message()
}

// Retryable reports whether the failure may be offered for retry
func (e *TransferError) Retryable() bool {
	return e.Category.Retryable()
}

// Classify converts err to a *TransferError. Errors that already carry a
// category are returned as is.
func Classify(err error) *TransferError {
	if err == nil {
		return nil
	}
	var te *TransferError
	if errors.As(err, &te) {
		return te
	}
	return &TransferError{Category: Category(err), Op: "transfer", Err: err}
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransferError
	if errors.As(err, &te) {
		return err
	}
	return &TransferError{Category: Category(err), Op: op, Path: path, Err: err}
}

// Category maps a transport error to its user-facing category
func Category(err error) models.ErrorCategory {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return models.CategoryNameResolution
	}

	var status *StatusError
	if errors.As(err, &status) {
		if status.Code == http.StatusRequestTimeout || status.Code == http.StatusGatewayTimeout {
			return models.CategoryTimeout
		}
		return models.CategoryOther
	}

	if isTimeout(err) {
		return models.CategoryTimeout
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, net.ErrClosed) {
		return models.CategoryConnectionClosed
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return models.CategoryConnect
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return models.CategoryConnect
	}

	return models.CategoryOther
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
