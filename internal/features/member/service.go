package member

import (
	"context"
	"fmt"
)

type MemberService interface {
	CreateMember(ctx context.Context, member *Member) error
	GetMember(ctx context.Context, id string) (*Member, error)
	ListMembers(ctx context.Context, filter map[string]interface{}) ([]Member, error)
	UpdateMember(ctx context.Context, member *Member) error
	DeleteMember(ctx context.Context, id string) error

	// QueryCandidates returns the field records an automation evaluates.
	// Which members are in scope for an automation type is a recipient
	// selection concern; the engine only needs the current active set.
	QueryCandidates(ctx context.Context, automationType string) ([]map[string]interface{}, error)
	GetRecord(ctx context.Context, memberID string) (map[string]interface{}, error)
}

type MemberServiceImpl struct {
	Repo MemberRepository
}

func NewMemberService(repo MemberRepository) MemberService {
	return &MemberServiceImpl{Repo: repo}
}

func (s *MemberServiceImpl) CreateMember(ctx context.Context, member *Member) error {
	if member.MembershipStatus == "" {
		member.MembershipStatus = "active"
	}
	return s.Repo.Create(ctx, member)
}

func (s *MemberServiceImpl) GetMember(ctx context.Context, id string) (*Member, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *MemberServiceImpl) ListMembers(ctx context.Context, filter map[string]interface{}) ([]Member, error) {
	return s.Repo.List(ctx, filter)
}

func (s *MemberServiceImpl) UpdateMember(ctx context.Context, member *Member) error {
	return s.Repo.Update(ctx, member)
}

func (s *MemberServiceImpl) DeleteMember(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

func (s *MemberServiceImpl) QueryCandidates(ctx context.Context, automationType string) ([]map[string]interface{}, error) {
	members, err := s.Repo.List(ctx, map[string]interface{}{
		"membership_status": map[string]interface{}{"$ne": "archived"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}

	records := make([]map[string]interface{}, len(members))
	for i := range members {
		records[i] = members[i].ToRecord()
	}
	return records, nil
}

func (s *MemberServiceImpl) GetRecord(ctx context.Context, memberID string) (map[string]interface{}, error) {
	member, err := s.Repo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, fmt.Errorf("member %s not found", memberID)
	}
	return member.ToRecord(), nil
}
