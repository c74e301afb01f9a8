package workcal

import (
	"context"
	"net/http"
	"time"

	"hrcore/internal/shared/apperror"

	"github.com/google/uuid"
)

var errInvalidHolidayDate = apperror.New(
	apperror.CodeInvalidInput,
	"invalid date format, expected YYYY-MM-DD",
	http.StatusBadRequest,
)

//go:generate mockgen -source=holiday_service.go -destination=mock/holiday_service_mock.go -package=mock
type HolidayService interface {
	Create(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error)
	GetAll(ctx context.Context) ([]HolidayResponse, error)
	Delete(ctx context.Context, id string) error
}

type holidayService struct {
	repo HolidayRepository
}

func NewHolidayService(repo HolidayRepository) HolidayService {
	return &holidayService{repo: repo}
}

func (s *holidayService) Create(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return HolidayResponse{}, errInvalidHolidayDate
	}

	h := &Holiday{
		ID:          uuid.New(),
		HolidayDate: date,
		Name:        req.Name,
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return HolidayResponse{}, err
	}
	return mapHolidayToResponse(*h), nil
}

func (s *holidayService) GetAll(ctx context.Context) ([]HolidayResponse, error) {
	holidays, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]HolidayResponse, len(holidays))
	for i, h := range holidays {
		resp[i] = mapHolidayToResponse(h)
	}
	return resp, nil
}

func (s *holidayService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func mapHolidayToResponse(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:   h.ID.String(),
		Date: h.HolidayDate.Format("2006-01-02"),
		Name: h.Name,
	}
}
