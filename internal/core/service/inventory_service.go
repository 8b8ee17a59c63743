package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/shop-bridge/internal/core/domain"
	"github.com/rl1809/shop-bridge/internal/port"
)

var (
	ErrNotFound         = errors.New("inventory item not found")
	ErrDuplicateRequest = errors.New("duplicate request")
)

const idempotencyKeyPrefix = "inventory:create:"

type InventoryService struct {
	repo        port.InventoryRepository
	idempotency port.IdempotencyStore
	logger      *zap.Logger
}

// NewInventoryService wires the service. idempotency may be nil, in which case
// idempotency keys are ignored.
func NewInventoryService(repo port.InventoryRepository, idempotency port.IdempotencyStore, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		repo:        repo,
		idempotency: idempotency,
		logger:      logger,
	}
}

func (s *InventoryService) ListItems(ctx context.Context) ([]domain.ItemView, error) {
	log := s.begin("ListItems")

	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, item.View())
	}

	log.Info("Request completed", zap.Int("count", len(views)))
	return views, nil
}

func (s *InventoryService) GetItem(ctx context.Context, id int64) (domain.ItemView, error) {
	log := s.begin("GetItem", zap.Int64("id", id))

	item, err := s.load(ctx, id)
	if err != nil {
		return domain.ItemView{}, err
	}

	log.Info("Request completed")
	return item.View(), nil
}

// CreateItem validates and stores a new item. A non-empty idempotencyKey is
// claimed before the insert; a second create with the same key fails with
// ErrDuplicateRequest.
func (s *InventoryService) CreateItem(ctx context.Context, idempotencyKey string, req domain.CreateItemRequest) (domain.ItemView, error) {
	log := s.begin("CreateItem")

	if err := domain.Validate(req); err != nil {
		return domain.ItemView{}, err
	}

	claimed, err := s.claim(ctx, idempotencyKey)
	if err != nil {
		return domain.ItemView{}, err
	}

	item := domain.NewInventoryItem(req)
	if _, err := s.repo.Create(ctx, &item); err != nil {
		if claimed {
			s.release(context.WithoutCancel(ctx), idempotencyKey)
		}
		return domain.ItemView{}, err
	}

	log.Info("Request completed", zap.Int64("id", item.ID))
	return item.View(), nil
}

func (s *InventoryService) UpdateItem(ctx context.Context, id int64, req domain.UpdateItemRequest) error {
	log := s.begin("UpdateItem", zap.Int64("id", id))

	if err := domain.Validate(req); err != nil {
		return err
	}

	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	item.Apply(req)
	if err := s.repo.Update(ctx, *item); err != nil {
		return err
	}

	log.Info("Request completed")
	return nil
}

// PatchItem applies ops to a projection of the stored item, validates the
// result and only then writes it back. A patch that fails at any step leaves
// storage untouched.
func (s *InventoryService) PatchItem(ctx context.Context, id int64, ops []domain.PatchOperation) error {
	log := s.begin("PatchItem", zap.Int64("id", id), zap.Int("operations", len(ops)))

	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	patched, err := item.UpdateRequest().ApplyPatch(ops)
	if err != nil {
		return err
	}
	if err := domain.Validate(patched); err != nil {
		return err
	}

	item.Apply(patched)
	if err := s.repo.Update(ctx, *item); err != nil {
		return err
	}

	log.Info("Request completed")
	return nil
}

func (s *InventoryService) DeleteItem(ctx context.Context, id int64) error {
	log := s.begin("DeleteItem", zap.Int64("id", id))

	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, *item); err != nil {
		return err
	}

	log.Info("Request completed")
	return nil
}

func (s *InventoryService) begin(op string, fields ...zap.Field) *zap.Logger {
	log := s.logger.With(append([]zap.Field{zap.String("op", op)}, fields...)...)
	log.Info("Request received")
	return log
}

func (s *InventoryService) load(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *InventoryService) claim(ctx context.Context, key string) (bool, error) {
	if key == "" || s.idempotency == nil {
		return false, nil
	}

	ok, err := s.idempotency.SetIdempotency(ctx, idempotencyKeyPrefix+key)
	if err != nil {
		return false, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return false, ErrDuplicateRequest
	}
	return true, nil
}

func (s *InventoryService) release(ctx context.Context, key string) {
	if err := s.idempotency.ReleaseIdempotency(ctx, idempotencyKeyPrefix+key); err != nil {
		s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}
