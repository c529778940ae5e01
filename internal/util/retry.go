package util

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"
)

// RetryConfig holds retry configuration for download attempts
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts
	BaseDelay   time.Duration // Backoff unit; attempt n waits n * BaseDelay
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
	}
}

// IsRetryableError checks if an error is worth retrying
// Returns true for transient network errors
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation is never retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var syscallError syscall.Errno
	if errors.As(err, &syscallError) {
		switch syscallError {
		case syscall.EAGAIN, // Resource temporarily unavailable
			syscall.ETIMEDOUT,    // Connection timed out
			syscall.ECONNRESET,   // Connection reset
			syscall.ECONNABORTED, // Connection aborted
			syscall.ECONNREFUSED, // Connection refused
			syscall.ENETDOWN,     // Network is down
			syscall.ENETUNREACH,  // Network unreachable
			syscall.EHOSTDOWN,    // Host is down
			syscall.EHOSTUNREACH: // Host unreachable
			return true
		}
	}

	if errors.Is(err, ErrNetwork) {
		return true
	}

	// Check error messages for common transient patterns
	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"timed out",
		"connection reset",
		"connection refused",
		"connection aborted",
		"broken pipe",
		"no route to host",
		"network is unreachable",
		"network is down",
		"temporary failure",
		"service unavailable",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// RetryLinear executes an operation up to cfg.MaxAttempts times with linear
// backoff: after attempt n fails, it waits n * cfg.BaseDelay before the next
// attempt. Returns nil on the first success, or the last error after all
// attempts are exhausted. The context cancels the wait between attempts.
func RetryLinear(ctx context.Context, cfg *RetryConfig, operation func() error, operationName string) error {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = operation()
		if err == nil {
			if attempt > 1 {
				DebugLog("Retry: %s succeeded on attempt %d/%d", operationName, attempt, cfg.MaxAttempts)
			}
			return nil
		}

		if !IsRetryableError(err) {
			DebugLog("Retry: %s failed with non-retryable error: %v", operationName, err)
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		wait := time.Duration(attempt) * cfg.BaseDelay
		DebugLog("Retry: %s failed (attempt %d/%d), retrying in %v: %v",
			operationName, attempt, cfg.MaxAttempts, wait, err)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	WarnLog("Retry: %s failed after %d attempts: %v", operationName, cfg.MaxAttempts, err)
	return err
}
