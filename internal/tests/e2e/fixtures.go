package e2e

import (
	"strings"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

const testPassword = "Passw0rd!"

// SignupBody returns a valid signup payload for role.
func SignupBody(role domain.Role, email string) map[string]interface{} {
	switch role {
	case domain.RoleVendor:
		return map[string]interface{}{
			"businessEmail":       email,
			"businessPassword":    testPassword,
			"businessName":        "Acme Foods",
			"businessDescription": "Fresh produce",
			"businessPhoneNumber": "+2348000000002",
			"agreeToTerms":        true,
		}
	case domain.RoleAdmin:
		return map[string]interface{}{
			"email":      email,
			"password":   testPassword,
			"fullName":   "Ops Admin",
			"department": "operations",
		}
	case domain.RoleDeliveryAgent:
		return map[string]interface{}{
			"email":         email,
			"password":      testPassword,
			"fullName":      "Rider One",
			"phone":         "+2348000000003",
			"vehicleType":   "motorcycle",
			"licenseNumber": "LAG-" + strings.SplitN(email, "@", 2)[0],
		}
	default:
		return map[string]interface{}{
			"email":    email,
			"password": testPassword,
			"fullName": "Jane Doe",
		}
	}
}

// LoginBody returns the login payload matching SignupBody.
func LoginBody(role domain.Role, email, password string) map[string]string {
	if role == domain.RoleVendor {
		return map[string]string{"businessEmail": email, "businessPassword": password}
	}
	return map[string]string{"email": email, "password": password}
}

// RolePath returns the credential route prefix for role.
func RolePath(role domain.Role) string {
	desc, _ := domain.DescriptorFor(role)
	return "/api/auth/" + desc.PathSegment
}
