package services

import (
	"context"
	"fmt"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
)

// StaffService exposes the staff directory that orders and shifts refer to.
type StaffService interface {
	GetStaffMember(ctx context.Context, staffID int64) (*models.StaffMember, error)
	ListStaffMembers(ctx context.Context, activeOnly bool) ([]models.StaffMember, error)
}

type staffService struct {
	repo repositories.StaffRepository
}

// NewStaffService creates a new instance of StaffService.
func NewStaffService(repo repositories.StaffRepository) StaffService {
	return &staffService{repo: repo}
}

func (s *staffService) GetStaffMember(ctx context.Context, staffID int64) (*models.StaffMember, error) {
	member, err := s.repo.GetStaffMemberByID(ctx, nil, staffID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("staff member %d", staffID))
	}
	return member, nil
}

func (s *staffService) ListStaffMembers(ctx context.Context, activeOnly bool) ([]models.StaffMember, error) {
	members, err := s.repo.GetStaffMembers(ctx, nil, activeOnly)
	if err != nil {
		return nil, mapRepoError(err, "listing staff members")
	}
	return members, nil
}
