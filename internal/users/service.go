package users

import (
	"context"
	"fmt"
)

// Profile is the public view of an account; it never carries the secret.
type Profile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	AvatarURL    string   `json:"avatar_url,omitempty"`
	RoleIDs      []string `json:"role_ids"`
	UniversityID *int64   `json:"university_id,omitempty"`
	CollegeID    *int64   `json:"college_id,omitempty"`
	DepartmentID *int64   `json:"department_id,omitempty"`
}

// ProfileOf strips the secret from an account.
func ProfileOf(a Account) Profile {
	a = a.Clone()
	roleIDs := a.RoleIDs
	if roleIDs == nil {
		roleIDs = []string{}
	}
	return Profile{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		AvatarURL:    a.AvatarURL,
		RoleIDs:      roleIDs,
		UniversityID: a.UniversityID,
		CollegeID:    a.CollegeID,
		DepartmentID: a.DepartmentID,
	}
}

// Service handles user business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users without secrets.
func (s *Service) ListUsers(ctx context.Context) ([]Profile, error) {
	accounts, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	profiles := make([]Profile, len(accounts))
	for i, a := range accounts {
		profiles[i] = ProfileOf(a)
	}
	return profiles, nil
}

// GetUser returns one user without its secret.
func (s *Service) GetUser(ctx context.Context, id string) (Profile, error) {
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return ProfileOf(*acct), nil
}
