package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

// Repository 는 요청 요약/경보 DB 접근을 담당한다.
// DB 가 비활성화되면 내장 SQLite(기본 인메모리)를 사용한다.
type Repository struct {
	cfg    config.DatabaseConfig
	logger *slog.Logger
	mu     sync.Mutex
	db     *gorm.DB
	sqlDB  *sql.DB
}

// NewRepository 는 저장소를 생성한다. 연결은 첫 사용 시점에 맺는다.
func NewRepository(cfg config.DatabaseConfig, logger *slog.Logger) *Repository {
	return &Repository{
		cfg:    cfg,
		logger: logger,
	}
}

// SaveRequests 는 요청 요약을 한 번에 저장한다.
func (r *Repository) SaveRequests(ctx context.Context, rows []RequestSummary) error {
	if len(rows) == 0 {
		return nil
	}
	db, err := r.getDB(ctx)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].CreatedAt = rows[i].CreatedAt.UTC()
	}
	if err := db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("save request summaries: %w", err)
	}
	return nil
}

// SaveAlert 는 경보 한 건을 저장한다.
func (r *Repository) SaveAlert(ctx context.Context, row AlertRecord) error {
	db, err := r.getDB(ctx)
	if err != nil {
		return err
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	row.CreatedAt = row.CreatedAt.UTC()
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

// ListAlerts 는 since 이후 경보를 최신순으로 조회한다.
func (r *Repository) ListAlerts(ctx context.Context, userID string, since time.Time) ([]AlertRecord, error) {
	db, err := r.getDB(ctx)
	if err != nil {
		return nil, err
	}

	query := db.WithContext(ctx).Where("created_at >= ?", since.UTC())
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var rows []AlertRecord
	if err := query.Order("created_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return rows, nil
}

// UserTotals 는 since 이후 사용자 요청 수, 토큰, 비용 합계를 조회한다.
func (r *Repository) UserTotals(ctx context.Context, userID string, since time.Time) (UserTotals, error) {
	db, err := r.getDB(ctx)
	if err != nil {
		return UserTotals{}, err
	}

	var result UserTotals
	if err := db.WithContext(ctx).Model(&RequestSummary{}).
		Select("COUNT(*) AS requests, COALESCE(SUM(tokens_used), 0) AS tokens_used, COALESCE(SUM(cost), 0) AS cost").
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Scan(&result).Error; err != nil {
		return UserTotals{}, fmt.Errorf("user totals: %w", err)
	}
	return result, nil
}

// Ping 은 DB 연결을 확인한다.
func (r *Repository) Ping(ctx context.Context) error {
	if _, err := r.getDB(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	sqlDB := r.sqlDB
	r.mu.Unlock()
	if sqlDB == nil {
		return errors.New("usage db closed")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping usage db: %w", err)
	}
	return nil
}

// Close 는 DB 연결을 닫는다.
func (r *Repository) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sqlDB == nil {
		return
	}
	_ = r.sqlDB.Close()
	r.sqlDB = nil
	r.db = nil
}

func (r *Repository) getDB(ctx context.Context) (*gorm.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return r.db, nil
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	var (
		db     *gorm.DB
		err    error
		target string
	)
	if r.cfg.Enabled {
		db, target, err = r.openPostgres(gormCfg)
	} else {
		target = "sqlite:" + r.sqlitePath()
		db, err = gorm.Open(sqlite.Open(r.sqlitePath()), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}

	if schemaErr := db.WithContext(ctx).AutoMigrate(&RequestSummary{}, &AlertRecord{}); schemaErr != nil {
		return nil, fmt.Errorf("prepare usage db: %w", schemaErr)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get usage db handle: %w", err)
	}
	r.configurePool(sqlDB)

	if r.logger != nil {
		r.logger.Info("usage_db_connected", "target", target)
	}

	r.db = db
	r.sqlDB = sqlDB
	return db, nil
}

func (r *Repository) sqlitePath() string {
	if r.cfg.SQLitePath == "" {
		return ":memory:"
	}
	return r.cfg.SQLitePath
}

func (r *Repository) configurePool(sqlDB *sql.DB) {
	if !r.cfg.Enabled {
		// 인메모리 SQLite 는 연결마다 별도 DB 이므로 단일 연결로 고정한다.
		sqlDB.SetMaxOpenConns(1)
		return
	}
	sqlDB.SetMaxIdleConns(r.cfg.MinPool)
	sqlDB.SetMaxOpenConns(r.cfg.MaxPool)
	if r.cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(r.cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}
	if r.cfg.ConnMaxIdleTimeMinutes > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(r.cfg.ConnMaxIdleTimeMinutes) * time.Minute)
	}
}

func (r *Repository) openPostgres(gormCfg *gorm.Config) (*gorm.DB, string, error) {
	hostUsed := r.cfg.Host
	db, err := gorm.Open(postgres.Open(r.cfg.DSN()), gormCfg)
	if err != nil && shouldFallbackToLocalhost(err, r.cfg.Host) {
		fallback := r.cfg
		fallback.Host = "127.0.0.1"
		db, err = gorm.Open(postgres.Open(fallback.DSN()), gormCfg)
		if err == nil {
			hostUsed = fallback.Host
			if r.logger != nil {
				r.logger.Warn(
					"usage_db_host_fallback",
					"configured_host", r.cfg.Host,
					"effective_host", hostUsed,
				)
			}
		}
	}
	return db, "postgres:" + hostUsed + "/" + r.cfg.Name, err
}

func shouldFallbackToLocalhost(err error, host string) bool {
	if err == nil {
		return false
	}
	if host == "" || host == "127.0.0.1" || strings.EqualFold(host, "localhost") {
		return false
	}
	if !strings.EqualFold(host, "postgres") {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return strings.EqualFold(dnsErr.Name, host)
	}

	lower := strings.ToLower(err.Error())
	hostLower := strings.ToLower(host)
	if strings.Contains(lower, "lookup "+hostLower) && strings.Contains(lower, "no such host") {
		return true
	}
	return strings.Contains(lower, "no such host") && strings.Contains(lower, hostLower)
}
