package llm

import "time"

// RetryStrategy decides whether a failed call is sent again.
type RetryStrategy interface {
	ShouldRetry(err error) bool
	NextDelay() time.Duration
	Reset()
}

// DefaultRetryStrategy retries only retryable errors, with exponential
// backoff starting at InitialWait and capped at MaxWait.
type DefaultRetryStrategy struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	attempts    int
}

func (s *DefaultRetryStrategy) ShouldRetry(err error) bool {
	if s.attempts >= s.MaxRetries {
		return false
	}
	return IsRetryable(err)
}

const maxShiftAmount = 30

func (s *DefaultRetryStrategy) NextDelay() time.Duration {
	s.attempts++
	shift := min(s.attempts-1, maxShiftAmount)
	delay := s.InitialWait * time.Duration(1<<shift)
	if s.MaxWait > 0 && delay > s.MaxWait {
		delay = s.MaxWait
	}
	return delay
}

func (s *DefaultRetryStrategy) Reset() {
	s.attempts = 0
}
