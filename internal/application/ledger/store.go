// Package ledger is the persistent store behind launches, contributions and
// the append-only transaction log.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"birthpad-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Launch is a Project together with its Sale.
type Launch struct {
	Project domain.Project
	Sale    domain.Sale
}

// Transaction runs fn inside a database transaction. The Store passed to fn is
// bound to that transaction and must not escape it.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

// FindUserByWallet returns nil, nil when no user is stored for wallet.
func (s *Store) FindUserByWallet(ctx context.Context, wallet string) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).Where("wallet_address = ?", wallet).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureUser materializes a user for wallet. A new user gets role. An existing
// user keeps its stored role unless promote is set, in which case it is raised
// to role.
func (s *Store) EnsureUser(ctx context.Context, wallet, role string, promote bool) (*domain.User, error) {
	u, err := s.FindUserByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if u == nil {
		u = &domain.User{WalletAddress: wallet, Role: role}
		if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
			return nil, err
		}
		return u, nil
	}
	if promote && u.Role != role {
		u.Role = role
		if err := s.DB.WithContext(ctx).Model(u).Update("role", role).Error; err != nil {
			return nil, err
		}
	}
	return u, nil
}

// FindLaunch loads a project and its sale, returning domain.ErrLaunchNotFound
// when either is missing.
func (s *Store) FindLaunch(ctx context.Context, projectID string) (*Launch, error) {
	var l Launch
	err := s.DB.WithContext(ctx).Where("id = ?", projectID).First(&l.Project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLaunchNotFound
	}
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Where("project_id = ?", projectID).First(&l.Sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLaunchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) CreateLaunch(ctx context.Context, l *Launch) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.DB.Create(&l.Project).Error; err != nil {
			return err
		}
		l.Sale.ProjectID = l.Project.ID
		return tx.DB.Create(&l.Sale).Error
	})
}

func (s *Store) SaveProject(ctx context.Context, p *domain.Project) error {
	return s.DB.WithContext(ctx).Save(p).Error
}

func (s *Store) SaveSale(ctx context.Context, sale *domain.Sale) error {
	return s.DB.WithContext(ctx).Save(sale).Error
}

// ListLaunches returns every launch, oldest project first.
func (s *Store) ListLaunches(ctx context.Context) ([]Launch, error) {
	var projects []domain.Project
	if err := s.DB.WithContext(ctx).Order("created_at ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return []Launch{}, nil
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	var sales []domain.Sale
	if err := s.DB.WithContext(ctx).Where("project_id IN ?", ids).Find(&sales).Error; err != nil {
		return nil, err
	}
	byProject := make(map[string]domain.Sale, len(sales))
	for _, sale := range sales {
		byProject[sale.ProjectID] = sale
	}
	out := make([]Launch, 0, len(projects))
	for _, p := range projects {
		sale, ok := byProject[p.ID]
		if !ok {
			continue
		}
		out = append(out, Launch{Project: p, Sale: sale})
	}
	return out, nil
}

func (s *Store) FindContribution(ctx context.Context, id string) (*domain.Contribution, error) {
	var c domain.Contribution
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateContribution(ctx context.Context, c *domain.Contribution) error {
	return s.DB.WithContext(ctx).Create(c).Error
}

func (s *Store) SaveContribution(ctx context.Context, c *domain.Contribution) error {
	return s.DB.WithContext(ctx).Save(c).Error
}

// SetClaimedAmount writes only claimed_amount so a concurrent status change is
// never overwritten.
func (s *Store) SetClaimedAmount(ctx context.Context, c *domain.Contribution) error {
	return s.DB.WithContext(ctx).Model(c).Update("claimed_amount", c.ClaimedAmount).Error
}

// Contributions lists a launch's contributions oldest first.
func (s *Store) Contributions(ctx context.Context, projectID string) ([]domain.Contribution, error) {
	var out []domain.Contribution
	err := s.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// WalletContributions lists one user's non-refunded contributions to a launch, oldest first.
func (s *Store) WalletContributions(ctx context.Context, projectID, userID string) ([]domain.Contribution, error) {
	var out []domain.Contribution
	err := s.DB.WithContext(ctx).
		Where("project_id = ? AND user_id = ? AND status <> ?", projectID, userID, domain.ContributionRefunded).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// UserContributions lists every contribution a user made across launches.
func (s *Store) UserContributions(ctx context.Context, userID string) ([]domain.Contribution, error) {
	var out []domain.Contribution
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// AppendTx inserts a settlement record. Records are never updated.
func (s *Store) AppendTx(ctx context.Context, t *domain.Tx) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return s.DB.WithContext(ctx).Create(t).Error
}

// TxFilter narrows ListTxs. Zero values are ignored.
type TxFilter struct {
	ProjectID string
	UserID    string
	Limit     int
}

// ListTxs returns settlement records newest first.
func (s *Store) ListTxs(ctx context.Context, f TxFilter) ([]domain.Tx, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Tx{})
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []domain.Tx
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// NewTxHash returns an opaque unique hash in 0x-prefixed hex form.
func NewTxHash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", uuid.New().String(), time.Now().UnixNano())))
	return "0x" + hex.EncodeToString(sum[:])
}
