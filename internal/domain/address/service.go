package address

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service implements validated address CRUD on top of a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an address Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns the user's addresses, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Address, error) {
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	return list, nil
}

// Get returns a single address owned by the user.
func (s *Service) Get(ctx context.Context, userID, id string) (*Address, error) {
	return s.repo.Get(ctx, userID, id)
}

// Create always stores a new address, even if an identical one exists.
func (s *Service) Create(ctx context.Context, userID string, f Fields) (*Address, error) {
	f = f.Normalize()
	if err := Validate(f); err != nil {
		return nil, err
	}
	a := &Address{
		ID:        uuid.NewString(),
		Fields:    f,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, userID, a); err != nil {
		return nil, errors.Wrap(err, "create address")
	}
	return a, nil
}

// Update applies a partial patch. The merged address must still be valid.
func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (*Address, error) {
	a, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return a, nil
	}
	merged := p.Apply(a.Fields).Normalize()
	if err := Validate(merged); err != nil {
		return nil, err
	}
	a.Fields = merged
	if err := s.repo.Update(ctx, userID, a); err != nil {
		return nil, errors.Wrapf(err, "update address %s", id)
	}
	return a, nil
}

// Delete removes an address. Orders keep their own frozen copy.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
