package usage

import (
	"context"
	"time"
)

// Store: 요청 요약과 경보의 영속 저장소 인터페이스입니다.
// 테스트에서 mock 구현을 주입할 수 있도록 합니다.
type Store interface {
	// SaveRequests 요청 요약 일괄 저장
	SaveRequests(ctx context.Context, rows []RequestSummary) error

	// SaveAlert 경보 저장
	SaveAlert(ctx context.Context, row AlertRecord) error

	// ListAlerts since 이후 경보 조회 (userID 가 비어있으면 전체)
	ListAlerts(ctx context.Context, userID string, since time.Time) ([]AlertRecord, error)

	// UserTotals since 이후 사용자 요청 합계
	UserTotals(ctx context.Context, userID string, since time.Time) (UserTotals, error)

	// Ping 연결 확인
	Ping(ctx context.Context) error

	// Close 리소스 정리
	Close()
}

// Repository가 Store 인터페이스를 구현하는지 컴파일 타임 확인
var _ Store = (*Repository)(nil)
