package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"gorm.io/gorm"
)

// PrincipalRepositoryImpl implements domain.PrincipalRepository for one role's table using GORM.
type PrincipalRepositoryImpl struct {
	db        *gorm.DB
	desc      domain.RoleDescriptor
	newRecord func() principalRecord
}

// NewPrincipalRepository creates the repository for role.
func NewPrincipalRepository(db *gorm.DB, role domain.Role) (domain.PrincipalRepository, error) {
	desc, ok := domain.DescriptorFor(role)
	if !ok {
		return nil, domain.ErrUnknownRole
	}
	factory, ok := newRecord[role]
	if !ok {
		return nil, fmt.Errorf("no storage model for role %s", role)
	}
	return &PrincipalRepositoryImpl{db: db, desc: desc, newRecord: factory}, nil
}

// Descriptor implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) Descriptor() domain.RoleDescriptor { return r.desc }

// Create implements domain.PrincipalRepository. A unique index violation maps to domain.ErrPrincipalExists.
func (r *PrincipalRepositoryImpl) Create(ctx context.Context, principal *domain.Principal) error {
	if principal.Role != r.desc.Role {
		return domain.ErrValidation(fmt.Sprintf("cannot store %s in %s", principal.Role, r.desc.Table))
	}
	rec := r.newRecord()
	if err := rec.fromDomain(principal); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPrincipalExists
		}
		return fmt.Errorf("failed to create %s: %w", r.desc.Role, err)
	}
	return nil
}

// FindByID implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Principal, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByLoginIdentifier implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) FindByLoginIdentifier(ctx context.Context, identifier string) (*domain.Principal, error) {
	return r.findOne(ctx, r.desc.LoginField+" = ?", identifier)
}

// FindByExternalUID implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) FindByExternalUID(ctx context.Context, uid string) (*domain.Principal, error) {
	if !r.desc.SupportsSocial || uid == "" {
		return nil, domain.ErrPrincipalNotFound
	}
	return r.findOne(ctx, "firebase_uid = ?", uid)
}

// UpdateProfile implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) UpdateProfile(ctx context.Context, id string, profile domain.Profile) error {
	values, err := r.newRecord().profileColumns(profile)
	if err != nil {
		return err
	}
	return r.update(ctx, id, values)
}

// UpdateSecret implements domain.PrincipalRepository. Any outstanding reset code is discarded.
func (r *PrincipalRepositoryImpl) UpdateSecret(ctx context.Context, id, secretHash string, changedAt time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		r.desc.SecretField:    secretHash,
		"password_changed_at": changedAt,
		"reset_token_hash":    "",
		"reset_token_expires": nil,
	})
}

// CompleteReset implements domain.PrincipalRepository. The update only
// matches while codeHash is still stored, so a code is consumed at most once.
func (r *PrincipalRepositoryImpl) CompleteReset(ctx context.Context, id, codeHash, secretHash string, changedAt time.Time) error {
	if codeHash == "" {
		return domain.ErrResetCodeExpired
	}
	res := r.db.WithContext(ctx).Model(r.newRecord()).
		Where("id = ? AND reset_token_hash = ?", id, codeHash).
		Updates(map[string]interface{}{
			r.desc.SecretField:       secretHash,
			"password_changed_at":    changedAt,
			"reset_token_hash":       "",
			"reset_token_expires":    nil,
			"invalid_reset_attempts": 0,
			"reset_blocked_until":    nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to complete reset for %s: %w", r.desc.Role, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missingOr(ctx, id, domain.ErrResetCodeExpired)
	}
	return nil
}

// SaveResetCode implements domain.PrincipalRepository. The latest code replaces any earlier one.
func (r *PrincipalRepositoryImpl) SaveResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"reset_token_hash":    codeHash,
		"reset_token_expires": expiresAt,
	})
}

// ReserveResetAttempt implements domain.PrincipalRepository as a
// compare-and-swap on invalid_reset_attempts.
func (r *PrincipalRepositoryImpl) ReserveResetAttempt(ctx context.Context, id string, seen, maxAttempts int, blockFor time.Duration, at time.Time) (*domain.ResetFailure, error) {
	failure := domain.ResetFailure{Attempts: seen + 1}
	values := map[string]interface{}{"invalid_reset_attempts": failure.Attempts}
	if failure.Attempts >= maxAttempts {
		until := at.Add(blockFor)
		values["reset_blocked_until"] = until
		failure.BlockedUntil = &until
	}

	res := r.db.WithContext(ctx).Model(r.newRecord()).
		Where("id = ? AND invalid_reset_attempts = ?", id, seen).
		UpdateColumns(values)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reserve reset attempt: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, r.missingOr(ctx, id, domain.ErrResetAttemptRaced)
	}
	return &failure, nil
}

// missingOr tells a vanished row apart from a failed update condition.
func (r *PrincipalRepositoryImpl) missingOr(ctx context.Context, id string, conditionErr error) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(r.newRecord()).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to find %s: %w", r.desc.Role, err)
	}
	if n == 0 {
		return domain.ErrPrincipalNotFound
	}
	return conditionErr
}

// TouchLogin implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) TouchLogin(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(r.newRecord()).Where("id = ?", id).UpdateColumn("last_login_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to record login: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPrincipalNotFound
	}
	return nil
}

// Deactivate implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) Deactivate(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"is_active":      false,
		"deactivated_at": at,
	})
}

// Delete implements domain.PrincipalRepository. The row is removed, not soft-deleted.
func (r *PrincipalRepositoryImpl) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(r.newRecord())
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", r.desc.Role, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPrincipalNotFound
	}
	return nil
}

func (r *PrincipalRepositoryImpl) findOne(ctx context.Context, query string, arg interface{}) (*domain.Principal, error) {
	rec := r.newRecord()
	err := r.db.WithContext(ctx).Where(query, arg).First(rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to find %s: %w", r.desc.Role, err)
	}
	return rec.toDomain(), nil
}

func (r *PrincipalRepositoryImpl) update(ctx context.Context, id string, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(r.newRecord()).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.ErrPrincipalExists
		}
		return fmt.Errorf("failed to update %s: %w", r.desc.Role, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPrincipalNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}

// PrincipalStoreImpl implements domain.PrincipalStore over the four principal tables.
type PrincipalStoreImpl struct {
	repos map[domain.Role]domain.PrincipalRepository
}

// NewPrincipalStore builds one repository per role.
func NewPrincipalStore(db *gorm.DB) (domain.PrincipalStore, error) {
	store := &PrincipalStoreImpl{repos: make(map[domain.Role]domain.PrincipalRepository)}
	for _, role := range domain.Roles() {
		repo, err := NewPrincipalRepository(db, role)
		if err != nil {
			return nil, err
		}
		store.repos[role] = repo
	}
	return store, nil
}

// ForRole implements domain.PrincipalStore
func (s *PrincipalStoreImpl) ForRole(role domain.Role) (domain.PrincipalRepository, error) {
	repo, ok := s.repos[role]
	if !ok {
		return nil, domain.ErrUnknownRole
	}
	return repo, nil
}
