package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/amisra31/localpick-market-demo-sub001/internal/config"
	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

// OpenDatabase connects to Postgres and migrates the owned tables.
func OpenDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&OrderModel{},
		&OrderStatusChangeModel{},
		&ChatMessageModel{},
		&ShopModel{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// GormStore implements the repository interfaces on a SQL database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	result := s.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// UpdateOrderStatus applies the new status in a single atomic update.
func (s *GormStore) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	result := s.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *GormStore) AppendStatusChange(ctx context.Context, change *domain.OrderStatusChange) error {
	if change.ID == "" {
		change.ID = uuid.New().String()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now()
	}

	model := OrderStatusChangeModel{
		ID:             change.ID,
		OrderID:        change.OrderID,
		PreviousStatus: string(change.PreviousStatus),
		NewStatus:      string(change.NewStatus),
		ActorID:        change.ActorID,
		ActorRole:      string(change.ActorRole),
		Notes:          change.Notes,
		CreatedAt:      change.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *GormStore) ListStatusChanges(ctx context.Context, orderID string) ([]domain.OrderStatusChange, error) {
	var models []OrderStatusChangeModel
	result := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	changes := make([]domain.OrderStatusChange, 0, len(models))
	for i := range models {
		changes = append(changes, models[i].ToDomain())
	}
	return changes, nil
}

func (s *GormStore) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(chatMessageToModel(msg)).Error
}

func (s *GormStore) GetMessage(ctx context.Context, id string) (*domain.ChatMessage, error) {
	var model ChatMessageModel
	result := s.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

func (s *GormStore) MarkMessageRead(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&ChatMessageModel{}).
		Where("id = ?", id).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *GormStore) ListConversationMessages(ctx context.Context, key domain.ConversationKey, limit int) ([]domain.ChatMessage, error) {
	q := s.db.WithContext(ctx).
		Where("customer_id = ? AND shop_id = ?", key.CustomerID, key.ShopID)
	if key.ProductID != nil {
		q = q.Where("product_id = ?", *key.ProductID)
	} else {
		q = q.Where("product_id IS NULL")
	}

	var models []ChatMessageModel
	result := q.Order("created_at ASC").Limit(limit).Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	messages := make([]domain.ChatMessage, 0, len(models))
	for i := range models {
		messages = append(messages, *models[i].ToDomain())
	}
	return messages, nil
}

func (s *GormStore) GetShop(ctx context.Context, id string) (*domain.Shop, error) {
	var model ShopModel
	result := s.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}
