// Package localstore is the gateway's durable per-visitor key/value
// store. It holds the state a storefront keeps on the device: the
// guest cart, saved credentials, and the language preference. Entries
// survive restarts, unlike the redis session state.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/seifpharma/storefront-gateway/pkg/config"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Storage keys, one per piece of device state.
const (
	keyCartItems    = "cartItems"
	keyUserToken    = "userToken"
	keyRefreshToken = "refreshToken"
	keyIsArabic     = "isArabic"
)

// ErrNotFound is returned when a visitor has no entry under the key.
var ErrNotFound = errors.New("localstore: entry not found")

// Entry is a single stored value for a visitor.
type Entry struct {
	VisitorID string    `gorm:"column:visitor_id;primaryKey"`
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName maps Entry onto the migrated table.
func (Entry) TableName() string { return "storage_entries" }

// Store wraps the embedded sqlite database.
type Store struct {
	conn *gorm.DB
}

// Open boots the sqlite-backed store and runs pending migrations when
// configured to.
func Open(ctx context.Context, cfg config.LocalStoreConfig, logg *logger.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("localstore path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening localstore: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	// sqlite serializes writers anyway; keeping the pool at one open
	// connection avoids database-is-locked errors under load.
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, sqlDB); err != nil {
			return nil, err
		}
	}

	if logg != nil {
		logg.Info(ctx, "localstore ready")
	}
	return &Store{conn: conn}, nil
}

// Get returns the raw value stored for the visitor under key.
func (s *Store) Get(ctx context.Context, visitorID, key string) (string, error) {
	var entry Entry
	err := s.conn.WithContext(ctx).
		Where("visitor_id = ? AND key = ?", visitorID, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("localstore get %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set stores the raw value for the visitor under key, replacing any
// previous value.
func (s *Store) Set(ctx context.Context, visitorID, key, value string) error {
	entry := Entry{VisitorID: visitorID, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.conn.WithContext(ctx).Save(&entry).Error
	if err != nil {
		return fmt.Errorf("localstore set %s: %w", key, err)
	}
	return nil
}

// Delete removes the visitor's entry under key. Missing entries are
// not an error.
func (s *Store) Delete(ctx context.Context, visitorID string, keys ...string) error {
	err := s.conn.WithContext(ctx).
		Where("visitor_id = ? AND key IN ?", visitorID, keys).
		Delete(&Entry{}).Error
	if err != nil {
		return fmt.Errorf("localstore delete: %w", err)
	}
	return nil
}

// Ping verifies the datasource is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (s *Store) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CartRecord is one stored cart line: a single-entry map from product
// id to quantity. The record list preserves insertion order.
type CartRecord map[string]int

// ProductID returns the record's sole product id.
func (r CartRecord) ProductID() string {
	for id := range r {
		return id
	}
	return ""
}

// Quantity returns the record's quantity.
func (r CartRecord) Quantity() int {
	for _, qty := range r {
		return qty
	}
	return 0
}

// GuestCart loads the visitor's stored cart. A missing entry is an
// empty cart.
func (s *Store) GuestCart(ctx context.Context, visitorID string) ([]CartRecord, error) {
	raw, err := s.Get(ctx, visitorID, keyCartItems)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []CartRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode stored cart: %w", err)
	}
	return records, nil
}

// SaveGuestCart replaces the visitor's stored cart.
func (s *Store) SaveGuestCart(ctx context.Context, visitorID string, records []CartRecord) error {
	if len(records) == 0 {
		return s.ClearGuestCart(ctx, visitorID)
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.Set(ctx, visitorID, keyCartItems, string(raw))
}

// ClearGuestCart drops the visitor's stored cart.
func (s *Store) ClearGuestCart(ctx context.Context, visitorID string) error {
	return s.Delete(ctx, visitorID, keyCartItems)
}

// Credential is the saved token pair for a signed-in visitor.
type Credential struct {
	AccessToken  string
	RefreshToken string
}

// Credential loads the visitor's saved tokens. A visitor with no
// access token is treated as a guest.
func (s *Store) Credential(ctx context.Context, visitorID string) (*Credential, error) {
	access, err := s.Get(ctx, visitorID, keyUserToken)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	refresh, err := s.Get(ctx, visitorID, keyRefreshToken)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return &Credential{AccessToken: access, RefreshToken: refresh}, nil
}

// SaveCredential stores the visitor's token pair.
func (s *Store) SaveCredential(ctx context.Context, visitorID string, cred Credential) error {
	if cred.AccessToken == "" {
		return fmt.Errorf("access token is required")
	}
	if err := s.Set(ctx, visitorID, keyUserToken, cred.AccessToken); err != nil {
		return err
	}
	if cred.RefreshToken != "" {
		return s.Set(ctx, visitorID, keyRefreshToken, cred.RefreshToken)
	}
	return nil
}

// ClearCredential signs the visitor out on this device.
func (s *Store) ClearCredential(ctx context.Context, visitorID string) error {
	return s.Delete(ctx, visitorID, keyUserToken, keyRefreshToken)
}

// Locale returns the visitor's stored language preference. Visitors
// default to Arabic until they choose otherwise.
func (s *Store) Locale(ctx context.Context, visitorID string) (bool, error) {
	raw, err := s.Get(ctx, visitorID, keyIsArabic)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return raw != "false", nil
}

// SaveLocale stores the visitor's language preference.
func (s *Store) SaveLocale(ctx context.Context, visitorID string, arabic bool) error {
	value := "true"
	if !arabic {
		value = "false"
	}
	return s.Set(ctx, visitorID, keyIsArabic, value)
}
