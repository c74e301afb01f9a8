package workcal

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=holiday_repo.go -destination=mock/holiday_repo_mock.go -package=mock
type HolidayRepository interface {
	Create(ctx context.Context, h *Holiday) error
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]Holiday, error)
	Exists(ctx context.Context, date time.Time) (bool, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]Holiday, error)
}

type holidayRepository struct {
	db *gorm.DB
}

func NewHolidayRepository(db *gorm.DB) HolidayRepository {
	return &holidayRepository{db: db}
}

func (r *holidayRepository) Create(ctx context.Context, h *Holiday) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *holidayRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Holiday{}, "id = ?", id).Error
}

func (r *holidayRepository) FindAll(ctx context.Context) ([]Holiday, error) {
	var holidays []Holiday
	err := r.db.WithContext(ctx).
		Order("holiday_date ASC").
		Find(&holidays).Error
	return holidays, err
}

func (r *holidayRepository) Exists(ctx context.Context, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Holiday{}).
		Where("holiday_date = ?", date.Format("2006-01-02")).
		Count(&count).Error
	return count > 0, err
}

func (r *holidayRepository) ListBetween(ctx context.Context, start, end time.Time) ([]Holiday, error) {
	var holidays []Holiday
	err := r.db.WithContext(ctx).
		Where("holiday_date BETWEEN ? AND ?", start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("holiday_date ASC").
		Find(&holidays).Error
	return holidays, err
}
