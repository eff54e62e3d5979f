package repositories

import (
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// PrincipalColumns are shared by every principal table.
type PrincipalColumns struct {
	ID                   string `gorm:"primaryKey;size:36"`
	IsVerified           bool
	IsActive             bool `gorm:"index"`
	DeactivatedAt        *time.Time
	PasswordChangedAt    *time.Time
	ResetTokenHash       string `gorm:"size:64"`
	ResetTokenExpires    *time.Time
	InvalidResetAttempts int `gorm:"not null;default:0"`
	ResetBlockedUntil    *time.Time
	LastLoginAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (c *PrincipalColumns) fill(p *domain.Principal) {
	c.ID = p.ID
	c.IsVerified = p.IsVerified
	c.IsActive = p.IsActive
	c.DeactivatedAt = p.DeactivatedAt
	c.PasswordChangedAt = p.PasswordChangedAt
	c.ResetTokenHash = p.ResetTokenHash
	c.ResetTokenExpires = p.ResetTokenExpires
	c.InvalidResetAttempts = p.InvalidResetAttempts
	c.ResetBlockedUntil = p.ResetBlockedUntil
	c.LastLoginAt = p.LastLoginAt
	c.CreatedAt = p.CreatedAt
	c.UpdatedAt = p.UpdatedAt
}

func (c *PrincipalColumns) principal(role domain.Role, login, secret string, profile domain.Profile) *domain.Principal {
	return &domain.Principal{
		ID:                   c.ID,
		Role:                 role,
		LoginIdentifier:      login,
		SecretHash:           secret,
		Provider:             domain.ProviderLocal,
		IsVerified:           c.IsVerified,
		IsActive:             c.IsActive,
		DeactivatedAt:        c.DeactivatedAt,
		PasswordChangedAt:    c.PasswordChangedAt,
		ResetTokenHash:       c.ResetTokenHash,
		ResetTokenExpires:    c.ResetTokenExpires,
		InvalidResetAttempts: c.InvalidResetAttempts,
		ResetBlockedUntil:    c.ResetBlockedUntil,
		LastLoginAt:          c.LastLoginAt,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
		Profile:              profile,
	}
}

// principalRecord is implemented by the GORM model of each principal table.
type principalRecord interface {
	TableName() string
	toDomain() *domain.Principal
	fromDomain(p *domain.Principal) error
	profileColumns(profile domain.Profile) (map[string]interface{}, error)
}

func tableFor(role domain.Role) string {
	d, _ := domain.DescriptorFor(role)
	return d.Table
}

// DBCustomer represents the database model for customers
type DBCustomer struct {
	PrincipalColumns
	Email       string  `gorm:"uniqueIndex;size:255;not null"`
	Password    string  `gorm:"column:password;size:72"`
	FullName    string  `gorm:"size:255"`
	Phone       string  `gorm:"size:32"`
	Avatar      string  `gorm:"size:512"`
	Address     string  `gorm:"size:512"`
	Provider    string  `gorm:"size:32;not null;default:local"`
	FirebaseUID *string `gorm:"column:firebase_uid;uniqueIndex;size:128"`
}

func (DBCustomer) TableName() string { return tableFor(domain.RoleCustomer) }

func (m *DBCustomer) toDomain() *domain.Principal {
	p := m.principal(domain.RoleCustomer, m.Email, m.Password, &domain.CustomerProfile{
		FullName: m.FullName,
		Phone:    m.Phone,
		Avatar:   m.Avatar,
		Address:  m.Address,
	})
	if m.Provider != "" {
		p.Provider = m.Provider
	}
	if m.FirebaseUID != nil {
		p.ExternalUID = *m.FirebaseUID
	}
	return p
}

func (m *DBCustomer) fromDomain(p *domain.Principal) error {
	profile, ok := p.Profile.(*domain.CustomerProfile)
	if !ok {
		return profileTypeError(domain.RoleCustomer, p.Profile)
	}
	m.fill(p)
	m.Email = p.LoginIdentifier
	m.Password = p.SecretHash
	m.FullName = profile.FullName
	m.Phone = profile.Phone
	m.Avatar = profile.Avatar
	m.Address = profile.Address
	m.Provider = p.Provider
	if m.Provider == "" {
		m.Provider = domain.ProviderLocal
	}
	if p.ExternalUID != "" {
		uid := p.ExternalUID
		m.FirebaseUID = &uid
	}
	return nil
}

func (m *DBCustomer) profileColumns(profile domain.Profile) (map[string]interface{}, error) {
	c, ok := profile.(*domain.CustomerProfile)
	if !ok {
		return nil, profileTypeError(domain.RoleCustomer, profile)
	}
	return map[string]interface{}{
		"full_name": c.FullName,
		"phone":     c.Phone,
		"avatar":    c.Avatar,
		"address":   c.Address,
	}, nil
}

// DBVendor represents the database model for vendors
type DBVendor struct {
	PrincipalColumns
	BusinessEmail       string `gorm:"uniqueIndex;size:255;not null"`
	BusinessPassword    string `gorm:"column:business_password;size:72;not null"`
	BusinessName        string `gorm:"size:255;not null"`
	BusinessDescription string `gorm:"type:text"`
	BusinessPhoneNumber string `gorm:"size:32"`
	BusinessAddress     string `gorm:"size:512"`
	TaxID               string `gorm:"column:tax_id;size:64"`
	VerificationStatus  string `gorm:"size:16;index"`
}

func (DBVendor) TableName() string { return tableFor(domain.RoleVendor) }

func (m *DBVendor) toDomain() *domain.Principal {
	return m.principal(domain.RoleVendor, m.BusinessEmail, m.BusinessPassword, &domain.VendorProfile{
		BusinessName:        m.BusinessName,
		BusinessDescription: m.BusinessDescription,
		BusinessPhoneNumber: m.BusinessPhoneNumber,
		BusinessAddress:     m.BusinessAddress,
		TaxID:               m.TaxID,
		VerificationStatus:  m.VerificationStatus,
	})
}

func (m *DBVendor) fromDomain(p *domain.Principal) error {
	profile, ok := p.Profile.(*domain.VendorProfile)
	if !ok {
		return profileTypeError(domain.RoleVendor, p.Profile)
	}
	m.fill(p)
	m.BusinessEmail = p.LoginIdentifier
	m.BusinessPassword = p.SecretHash
	m.BusinessName = profile.BusinessName
	m.BusinessDescription = profile.BusinessDescription
	m.BusinessPhoneNumber = profile.BusinessPhoneNumber
	m.BusinessAddress = profile.BusinessAddress
	m.TaxID = profile.TaxID
	m.VerificationStatus = profile.VerificationStatus
	return nil
}

func (m *DBVendor) profileColumns(profile domain.Profile) (map[string]interface{}, error) {
	v, ok := profile.(*domain.VendorProfile)
	if !ok {
		return nil, profileTypeError(domain.RoleVendor, profile)
	}
	return map[string]interface{}{
		"business_name":         v.BusinessName,
		"business_description":  v.BusinessDescription,
		"business_phone_number": v.BusinessPhoneNumber,
		"business_address":      v.BusinessAddress,
		"tax_id":                v.TaxID,
		"verification_status":   v.VerificationStatus,
	}, nil
}

// DBAdmin represents the database model for admins
type DBAdmin struct {
	PrincipalColumns
	Email       string   `gorm:"uniqueIndex;size:255;not null"`
	Password    string   `gorm:"column:password;size:72;not null"`
	FullName    string   `gorm:"size:255;not null"`
	Department  string   `gorm:"size:128"`
	Permissions []string `gorm:"serializer:json;type:text"`
}

func (DBAdmin) TableName() string { return tableFor(domain.RoleAdmin) }

func (m *DBAdmin) toDomain() *domain.Principal {
	return m.principal(domain.RoleAdmin, m.Email, m.Password, &domain.AdminProfile{
		FullName:    m.FullName,
		Department:  m.Department,
		Permissions: m.Permissions,
	})
}

func (m *DBAdmin) fromDomain(p *domain.Principal) error {
	profile, ok := p.Profile.(*domain.AdminProfile)
	if !ok {
		return profileTypeError(domain.RoleAdmin, p.Profile)
	}
	m.fill(p)
	m.Email = p.LoginIdentifier
	m.Password = p.SecretHash
	m.FullName = profile.FullName
	m.Department = profile.Department
	m.Permissions = profile.Permissions
	return nil
}

// Permissions are not part of a self-service profile update.
func (m *DBAdmin) profileColumns(profile domain.Profile) (map[string]interface{}, error) {
	a, ok := profile.(*domain.AdminProfile)
	if !ok {
		return nil, profileTypeError(domain.RoleAdmin, profile)
	}
	return map[string]interface{}{
		"full_name":  a.FullName,
		"department": a.Department,
	}, nil
}

// DBDeliveryAgent represents the database model for delivery agents
type DBDeliveryAgent struct {
	PrincipalColumns
	Email              string `gorm:"uniqueIndex;size:255;not null"`
	Password           string `gorm:"column:password;size:72;not null"`
	FullName           string `gorm:"size:255;not null"`
	Phone              string `gorm:"size:32;not null"`
	VehicleType        string `gorm:"size:16;not null"`
	LicenseNumber      string `gorm:"uniqueIndex;size:64;not null"`
	IsAvailable        bool
	VerificationStatus string `gorm:"size:16;index"`
}

func (DBDeliveryAgent) TableName() string { return tableFor(domain.RoleDeliveryAgent) }

func (m *DBDeliveryAgent) toDomain() *domain.Principal {
	return m.principal(domain.RoleDeliveryAgent, m.Email, m.Password, &domain.DeliveryAgentProfile{
		FullName:           m.FullName,
		Phone:              m.Phone,
		VehicleType:        m.VehicleType,
		LicenseNumber:      m.LicenseNumber,
		IsAvailable:        m.IsAvailable,
		VerificationStatus: m.VerificationStatus,
	})
}

func (m *DBDeliveryAgent) fromDomain(p *domain.Principal) error {
	profile, ok := p.Profile.(*domain.DeliveryAgentProfile)
	if !ok {
		return profileTypeError(domain.RoleDeliveryAgent, p.Profile)
	}
	m.fill(p)
	m.Email = p.LoginIdentifier
	m.Password = p.SecretHash
	m.FullName = profile.FullName
	m.Phone = profile.Phone
	m.VehicleType = profile.VehicleType
	m.LicenseNumber = profile.LicenseNumber
	m.IsAvailable = profile.IsAvailable
	m.VerificationStatus = profile.VerificationStatus
	return nil
}

func (m *DBDeliveryAgent) profileColumns(profile domain.Profile) (map[string]interface{}, error) {
	a, ok := profile.(*domain.DeliveryAgentProfile)
	if !ok {
		return nil, profileTypeError(domain.RoleDeliveryAgent, profile)
	}
	return map[string]interface{}{
		"full_name":           a.FullName,
		"phone":               a.Phone,
		"vehicle_type":        a.VehicleType,
		"license_number":      a.LicenseNumber,
		"is_available":        a.IsAvailable,
		"verification_status": a.VerificationStatus,
	}, nil
}

// newRecord returns an empty model for role.
var newRecord = map[domain.Role]func() principalRecord{
	domain.RoleCustomer:      func() principalRecord { return &DBCustomer{} },
	domain.RoleVendor:        func() principalRecord { return &DBVendor{} },
	domain.RoleAdmin:         func() principalRecord { return &DBAdmin{} },
	domain.RoleDeliveryAgent: func() principalRecord { return &DBDeliveryAgent{} },
}

// Models lists every principal model for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&DBCustomer{}, &DBVendor{}, &DBAdmin{}, &DBDeliveryAgent{}}
}

func profileTypeError(role domain.Role, profile domain.Profile) error {
	if profile == nil {
		return domain.ErrValidation("profile is required for " + string(role))
	}
	return domain.ErrValidation("expected " + string(role) + " profile, got " + string(profile.Role()))
}
