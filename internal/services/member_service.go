package services

import (
	"context"

	"fee-backend/internal/cache"
	"fee-backend/internal/models"
	"fee-backend/internal/repositories"

	"github.com/go-playground/validator/v10"
)

type MemberService struct {
	memberRepo *repositories.MemberRepository
	validate   *validator.Validate
}

func NewMemberService(memberRepo *repositories.MemberRepository) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		validate:   validator.New(),
	}
}

func (s *MemberService) Create(ctx context.Context, req *models.CreateMemberRequest) (*models.Member, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	member := &models.Member{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		GuardianName: req.GuardianName,
		Batch:        req.Batch,
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}
	cache.InvalidateMemberCaches(ctx)
	return member, nil
}

func (s *MemberService) Get(ctx context.Context, id int) (*models.Member, error) {
	return s.memberRepo.Get(ctx, id)
}

func (s *MemberService) List(ctx context.Context, search string, activeOnly bool) ([]*models.Member, error) {
	return s.memberRepo.List(ctx, search, activeOnly)
}

func (s *MemberService) Update(ctx context.Context, id int, req *models.UpdateMemberRequest) (*models.Member, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	member.Name = req.Name
	member.Phone = req.Phone
	member.Email = req.Email
	member.GuardianName = req.GuardianName
	member.Batch = req.Batch
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}
	cache.InvalidateMemberCaches(ctx)
	return member, nil
}

// Delete soft-deletes the member. Their fee records and payment history
// stay intact.
func (s *MemberService) Delete(ctx context.Context, id int) error {
	if err := s.memberRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateMemberCaches(ctx)
	return nil
}
