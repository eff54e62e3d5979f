package domain

// Role identifies which principal collection an account belongs to.
type Role string

const (
	RoleCustomer      Role = "customer"
	RoleVendor        Role = "vendor"
	RoleAdmin         Role = "admin"
	RoleDeliveryAgent Role = "delivery_agent"
)

// RoleDescriptor captures everything that differs between principal
// collections at the storage and flow level.
type RoleDescriptor struct {
	Role Role
	// Table is the collection holding principals of this role.
	Table string
	// LoginField names the column holding the login identifier.
	LoginField string
	// SecretField names the column holding the bcrypt digest.
	SecretField string
	// SupportsSocial allows external identity provider sign-in.
	SupportsSocial bool
	// PathSegment is the URL segment used by the HTTP transport.
	PathSegment string
	// DisplayName is used in notification copy.
	DisplayName string
	// RequiresTerms rejects signups that did not accept the terms of service.
	RequiresTerms bool
	// ResetDisclaimer closes the password reset email.
	ResetDisclaimer string

	newProfile func() Profile
}

// NewProfile returns an empty profile of the role's concrete type.
func (d RoleDescriptor) NewProfile() Profile { return d.newProfile() }

const defaultResetDisclaimer = "If you didn't request this reset, please ignore this email."

var roleDescriptors = map[Role]RoleDescriptor{
	RoleCustomer: {
		Role:            RoleCustomer,
		Table:           "customers",
		LoginField:      "email",
		SecretField:     "password",
		SupportsSocial:  true,
		PathSegment:     "customers",
		DisplayName:     "customer",
		ResetDisclaimer: defaultResetDisclaimer,
		newProfile:      func() Profile { return &CustomerProfile{} },
	},
	RoleVendor: {
		Role:            RoleVendor,
		Table:           "vendors",
		LoginField:      "business_email",
		SecretField:     "business_password",
		PathSegment:     "vendors",
		DisplayName:     "vendor",
		RequiresTerms:   true,
		ResetDisclaimer: defaultResetDisclaimer,
		newProfile:      func() Profile { return &VendorProfile{} },
	},
	RoleAdmin: {
		Role:            RoleAdmin,
		Table:           "admins",
		LoginField:      "email",
		SecretField:     "password",
		PathSegment:     "admins",
		DisplayName:     "admin",
		ResetDisclaimer: "If you didn't request this reset, contact IT support immediately.",
		newProfile:      func() Profile { return &AdminProfile{} },
	},
	RoleDeliveryAgent: {
		Role:            RoleDeliveryAgent,
		Table:           "delivery_agents",
		LoginField:      "email",
		SecretField:     "password",
		PathSegment:     "delivery-agents",
		DisplayName:     "delivery agent",
		ResetDisclaimer: defaultResetDisclaimer,
		newProfile:      func() Profile { return &DeliveryAgentProfile{} },
	},
}

// Roles lists the closed set of principal roles in a stable order.
func Roles() []Role {
	return []Role{RoleCustomer, RoleVendor, RoleAdmin, RoleDeliveryAgent}
}

// DescriptorFor returns the descriptor for role, or false for roles outside the closed set.
func DescriptorFor(role Role) (RoleDescriptor, bool) {
	d, ok := roleDescriptors[role]
	return d, ok
}

// RoleFromPathSegment resolves a URL segment such as "delivery-agents" to its role.
func RoleFromPathSegment(segment string) (Role, bool) {
	for _, d := range roleDescriptors {
		if d.PathSegment == segment {
			return d.Role, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the four principal roles.
func (r Role) Valid() bool {
	_, ok := roleDescriptors[r]
	return ok
}

func (r Role) String() string { return string(r) }
