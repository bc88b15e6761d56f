package router

import (
	"errors"
	"fmt"
)

// ErrNoProviderAvailable 는 호출 시도 전 후보가 하나도 없을 때 반환된다.
var ErrNoProviderAvailable = errors.New("no provider available")

// ErrAllProvidersFailed 는 AllProvidersFailedError 와 errors.Is 로 매칭된다.
var ErrAllProvidersFailed = errors.New("all providers failed")

// AllProvidersFailedError 는 모든 후보 호출이 실패했음을 나타낸다. Last 는 마지막 시도의 오류다.
type AllProvidersFailedError struct {
	Attempts int
	Last     error
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *AllProvidersFailedError) Unwrap() error {
	return e.Last
}

// Is 는 ErrAllProvidersFailed 센티널 비교를 지원한다.
func (e *AllProvidersFailedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}
