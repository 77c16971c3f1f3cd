package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tilequote/quote-api/internal/domain"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// FindByNameAndPhone looks up an existing client using case-insensitive name and exact phone
func (r *ClientRepository) FindByNameAndPhone(ctx context.Context, name, phone string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? AND phone = ?", strings.ToLower(strings.TrimSpace(name)), phone).
		First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Quotation{}).Where("client_id = ?", id).Update("client_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Invoice{}).Where("client_id = ?", id).Update("client_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Client{}, "id = ?", id).Error
	})
}

func (r *ClientRepository) List(ctx context.Context, page, pageSize int, search string) ([]domain.Client, int64, error) {
	var clients []domain.Client
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Client{})

	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ?", searchPattern, searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("name ASC").Offset(offset).Limit(pageSize).Find(&clients).Error

	return clients, total, err
}

func (r *ClientRepository) ListAll(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	err := r.db.WithContext(ctx).Order("name ASC").Find(&clients).Error
	return clients, err
}
