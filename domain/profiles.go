package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Profile holds the attributes specific to one role.
type Profile interface {
	Role() Role
	// Validate checks the fields required at signup.
	Validate() error
	// WithDefaults fills the values a new account starts with.
	WithDefaults() Profile
	// Merge overlays the non-empty fields of patch.
	Merge(patch Profile) (Profile, error)
	DisplayName() string
	ContactPhone() string
}

// Verification states for vendors and delivery agents
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Vehicle types accepted for delivery agents
var VehicleTypes = []string{"bicycle", "motorcycle", "car", "van", "truck"}

// CustomerProfile represents a shopper.
type CustomerProfile struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Address  string `json:"address,omitempty"`
}

func (p *CustomerProfile) Role() Role { return RoleCustomer }

func (p *CustomerProfile) Validate() error {
	return requireFields(map[string]string{"fullName": p.FullName})
}

func (p *CustomerProfile) WithDefaults() Profile { return p }

func (p *CustomerProfile) Merge(patch Profile) (Profile, error) {
	in, ok := patch.(*CustomerProfile)
	if !ok {
		return nil, profileMismatch(p, patch)
	}
	out := *p
	overlay(&out.FullName, in.FullName)
	overlay(&out.Phone, in.Phone)
	overlay(&out.Avatar, in.Avatar)
	overlay(&out.Address, in.Address)
	return &out, nil
}

func (p *CustomerProfile) DisplayName() string  { return p.FullName }
func (p *CustomerProfile) ContactPhone() string { return p.Phone }

// VendorProfile represents a business selling on the marketplace.
type VendorProfile struct {
	BusinessName        string `json:"businessName"`
	BusinessDescription string `json:"businessDescription"`
	BusinessPhoneNumber string `json:"businessPhoneNumber"`
	BusinessAddress     string `json:"businessAddress"`
	TaxID               string `json:"taxId,omitempty"`
	VerificationStatus  string `json:"verificationStatus"`
}

func (p *VendorProfile) Role() Role { return RoleVendor }

func (p *VendorProfile) Validate() error {
	return requireFields(map[string]string{
		"businessName":        p.BusinessName,
		"businessDescription": p.BusinessDescription,
		"businessPhoneNumber": p.BusinessPhoneNumber,
	})
}

// WithDefaults starts every vendor unverified, whatever the signup carried.
func (p *VendorProfile) WithDefaults() Profile {
	out := *p
	out.VerificationStatus = VerificationPending
	return &out
}

// Merge never lets a vendor change its own verification status.
func (p *VendorProfile) Merge(patch Profile) (Profile, error) {
	in, ok := patch.(*VendorProfile)
	if !ok {
		return nil, profileMismatch(p, patch)
	}
	out := *p
	overlay(&out.BusinessName, in.BusinessName)
	overlay(&out.BusinessDescription, in.BusinessDescription)
	overlay(&out.BusinessPhoneNumber, in.BusinessPhoneNumber)
	overlay(&out.BusinessAddress, in.BusinessAddress)
	overlay(&out.TaxID, in.TaxID)
	return &out, nil
}

func (p *VendorProfile) DisplayName() string  { return p.BusinessName }
func (p *VendorProfile) ContactPhone() string { return p.BusinessPhoneNumber }

// AdminProfile represents marketplace staff.
type AdminProfile struct {
	FullName    string   `json:"fullName"`
	Department  string   `json:"department"`
	Permissions []string `json:"permissions"`
}

func (p *AdminProfile) Role() Role { return RoleAdmin }

func (p *AdminProfile) Validate() error {
	return requireFields(map[string]string{
		"fullName":   p.FullName,
		"department": p.Department,
	})
}

func (p *AdminProfile) WithDefaults() Profile {
	out := *p
	if len(out.Permissions) == 0 {
		out.Permissions = []string{"read"}
	}
	return &out
}

// Merge leaves permissions untouched; they are managed by other admins.
func (p *AdminProfile) Merge(patch Profile) (Profile, error) {
	in, ok := patch.(*AdminProfile)
	if !ok {
		return nil, profileMismatch(p, patch)
	}
	out := *p
	overlay(&out.FullName, in.FullName)
	overlay(&out.Department, in.Department)
	return &out, nil
}

func (p *AdminProfile) DisplayName() string  { return p.FullName }
func (p *AdminProfile) ContactPhone() string { return "" }

// DeliveryAgentProfile represents a courier.
type DeliveryAgentProfile struct {
	FullName           string `json:"fullName"`
	Phone              string `json:"phone"`
	VehicleType        string `json:"vehicleType"`
	LicenseNumber      string `json:"licenseNumber"`
	IsAvailable        bool   `json:"isAvailable"`
	VerificationStatus string `json:"verificationStatus"`
}

func (p *DeliveryAgentProfile) Role() Role { return RoleDeliveryAgent }

func (p *DeliveryAgentProfile) Validate() error {
	if err := requireFields(map[string]string{
		"fullName":      p.FullName,
		"phone":         p.Phone,
		"vehicleType":   p.VehicleType,
		"licenseNumber": p.LicenseNumber,
	}); err != nil {
		return err
	}
	return validateVehicleType(p.VehicleType)
}

func (p *DeliveryAgentProfile) WithDefaults() Profile {
	out := *p
	out.VerificationStatus = VerificationPending
	out.IsAvailable = true
	return &out
}

func (p *DeliveryAgentProfile) Merge(patch Profile) (Profile, error) {
	in, ok := patch.(*DeliveryAgentProfile)
	if !ok {
		return nil, profileMismatch(p, patch)
	}
	out := *p
	overlay(&out.FullName, in.FullName)
	overlay(&out.Phone, in.Phone)
	overlay(&out.LicenseNumber, in.LicenseNumber)
	if in.VehicleType != "" {
		if err := validateVehicleType(in.VehicleType); err != nil {
			return nil, err
		}
		out.VehicleType = in.VehicleType
	}
	return &out, nil
}

func (p *DeliveryAgentProfile) DisplayName() string  { return p.FullName }
func (p *DeliveryAgentProfile) ContactPhone() string { return p.Phone }

// EmptyProfile returns a zero profile of the role's concrete type, for decoding.
func EmptyProfile(role Role) (Profile, bool) {
	d, ok := DescriptorFor(role)
	if !ok {
		return nil, false
	}
	return d.NewProfile(), true
}

func validateVehicleType(v string) error {
	for _, t := range VehicleTypes {
		if v == t {
			return nil
		}
	}
	return ErrValidation(fmt.Sprintf("vehicleType must be one of: %s", strings.Join(VehicleTypes, ", ")))
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return ErrValidation("missing required fields: " + strings.Join(missing, ", "))
}

func overlay(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func profileMismatch(have, patch Profile) error {
	if patch == nil {
		return ErrValidation("profile update is empty")
	}
	return ErrValidation(fmt.Sprintf("cannot apply %s profile fields to a %s account", patch.Role(), have.Role()))
}
