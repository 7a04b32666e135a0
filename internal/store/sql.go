package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tariel-x/pushrelay/internal/models"
)

// SQLStore keeps the single slot in a sqlite table so it survives restarts.
// Put deletes every row and inserts the new one in one transaction.
type SQLStore struct {
	mu sync.Mutex
	db *gorm.DB
}

func OpenSQL(dbPath string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&models.PushSubscription{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Put(ctx context.Context, sub models.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.PushSubscription{}).Error; err != nil {
			return fmt.Errorf("failed to delete old subscription: %w", err)
		}
		if err := tx.Create(models.NewPushSubscription(sub)).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) Get(ctx context.Context) (models.Subscription, error) {
	var record models.PushSubscription
	err := s.db.WithContext(ctx).Order("created_at desc").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Subscription{}, ErrNotFound
	}
	if err != nil {
		return models.Subscription{}, fmt.Errorf("failed to load subscription: %w", err)
	}
	return record.Subscription(), nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.PushSubscription{}).Error; err != nil {
		return fmt.Errorf("failed to clear subscription: %w", err)
	}
	return nil
}

func (s *SQLStore) ClearIf(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{}).Error; err != nil {
		return fmt.Errorf("failed to clear subscription: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
