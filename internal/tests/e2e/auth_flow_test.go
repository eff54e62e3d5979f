package e2e

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

func TestSignupAndLogin_EveryRole(t *testing.T) {
	suite := NewTestSuite(t)

	for _, role := range domain.Roles() {
		t.Run(string(role), func(t *testing.T) {
			email := uniqueEmail(string(role))

			w, env := suite.Do(t, http.MethodPost, RolePath(role)+"/signup", "", SignupBody(role, email))
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			assert.True(t, env.Success)
			assert.Equal(t, http.StatusCreated, env.Code)
			require.NotEmpty(t, env.Token)
			assert.NotContains(t, w.Body.String(), "Passw0rd!")
			assert.NotContains(t, w.Body.String(), "$2a$")

			var created PrincipalView
			Data(t, env, &created)
			assert.Equal(t, role, created.Role)
			assert.Equal(t, email, created.Email)

			w, env = suite.Do(t, http.MethodPost, RolePath(role)+"/login", "", LoginBody(role, email, testPassword))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			require.NotEmpty(t, env.Token)

			w, env = suite.Do(t, http.MethodPost, "/api/auth/verify", env.Token, nil)
			require.Equal(t, http.StatusOK, w.Code)
			var verified PrincipalView
			Data(t, env, &verified)
			assert.Equal(t, created.ID, verified.ID)
			assert.Equal(t, role, verified.Role)
		})
	}
}

func TestSignup_DuplicateAndValidation(t *testing.T) {
	suite := NewTestSuite(t)
	email := uniqueEmail("dup")

	w, _ := suite.Do(t, http.MethodPost, RolePath(domain.RoleCustomer)+"/signup", "", SignupBody(domain.RoleCustomer, email))
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := suite.Do(t, http.MethodPost, RolePath(domain.RoleCustomer)+"/signup", "", SignupBody(domain.RoleCustomer, email))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)

	// the same address may hold an account in another role
	w, _ = suite.Do(t, http.MethodPost, RolePath(domain.RoleAdmin)+"/signup", "", SignupBody(domain.RoleAdmin, email))
	assert.Equal(t, http.StatusCreated, w.Code)

	weak := SignupBody(domain.RoleCustomer, uniqueEmail("weak"))
	weak["password"] = "password"
	w, _ = suite.Do(t, http.MethodPost, RolePath(domain.RoleCustomer)+"/signup", "", weak)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	noTerms := SignupBody(domain.RoleVendor, uniqueEmail("shop"))
	noTerms["agreeToTerms"] = false
	w, _ = suite.Do(t, http.MethodPost, RolePath(domain.RoleVendor)+"/signup", "", noTerms)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_DoesNotRevealAccounts(t *testing.T) {
	suite := NewTestSuite(t)
	email := uniqueEmail("jane")
	w, _ := suite.Do(t, http.MethodPost, RolePath(domain.RoleCustomer)+"/signup", "", SignupBody(domain.RoleCustomer, email))
	require.Equal(t, http.StatusCreated, w.Code)

	wrongPassword, env1 := suite.Do(t, http.MethodPost, RolePath(domain.RoleCustomer)+"/login", "", LoginBody(domain.RoleCustomer, email, "Wrong1234"))
	unknown, env2 := suite.Do(t, http.MethodPost, RolePath(domain.RoleCustomer)+"/login", "", LoginBody(domain.RoleCustomer, uniqueEmail("ghost"), testPassword))
	otherRole, env3 := suite.Do(t, http.MethodPost, RolePath(domain.RoleVendor)+"/login", "", LoginBody(domain.RoleVendor, email, testPassword))

	for _, w := range []int{wrongPassword.Code, unknown.Code, otherRole.Code} {
		assert.Equal(t, http.StatusUnauthorized, w)
	}
	assert.Equal(t, env1.Message, env2.Message)
	assert.Equal(t, env1.Message, env3.Message)
}

func TestProfileAndPasswordLifecycle(t *testing.T) {
	suite := NewTestSuite(t)
	email := uniqueEmail("shop")

	_, env := suite.Do(t, http.MethodPost, RolePath(domain.RoleVendor)+"/signup", "", SignupBody(domain.RoleVendor, email))
	token := env.Token
	require.NotEmpty(t, token)

	w, env := suite.Do(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		Profile domain.VendorProfile `json:"profile"`
	}
	Data(t, env, &profile)
	assert.Equal(t, "Acme Foods", profile.Profile.BusinessName)
	assert.Equal(t, domain.VerificationPending, profile.Profile.VerificationStatus)

	w, env = suite.Do(t, http.MethodPatch, "/api/auth/profile", token, map[string]string{
		"businessName":       "Acme Fresh",
		"verificationStatus": domain.VerificationApproved,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	Data(t, env, &profile)
	assert.Equal(t, "Acme Fresh", profile.Profile.BusinessName)
	assert.Equal(t, domain.VerificationPending, profile.Profile.VerificationStatus)

	w, _ = suite.Do(t, http.MethodPatch, "/api/auth/password", token, map[string]string{
		"currentPassword": "Wrong1234", "newPassword": "Fresh1234",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = suite.Do(t, http.MethodPatch, "/api/auth/password", token, map[string]string{
		"currentPassword": testPassword, "newPassword": "Fresh1234",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// tokens issued before the change no longer verify
	w, _ = suite.Do(t, http.MethodPost, "/api/auth/verify", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = suite.Do(t, http.MethodPost, RolePath(domain.RoleVendor)+"/login", "", LoginBody(domain.RoleVendor, email, "Fresh1234"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, env.Token)
}

func TestDeactivate(t *testing.T) {
	suite := NewTestSuite(t)
	email := uniqueEmail("rider")

	_, env := suite.Do(t, http.MethodPost, RolePath(domain.RoleDeliveryAgent)+"/signup", "", SignupBody(domain.RoleDeliveryAgent, email))
	token := env.Token
	require.NotEmpty(t, token)

	w, _ := suite.Do(t, http.MethodPost, "/api/auth/deactivate", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{email}, suite.Mail.LastEmail().To)

	w, _ = suite.Do(t, http.MethodPost, "/api/auth/verify", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = suite.Do(t, http.MethodPost, RolePath(domain.RoleDeliveryAgent)+"/login", "", LoginBody(domain.RoleDeliveryAgent, email, testPassword))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerify_BadTokens(t *testing.T) {
	suite := NewTestSuite(t)

	w, _ := suite.Do(t, http.MethodPost, "/api/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := suite.Do(t, http.MethodPost, "/api/auth/verify", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.ErrTokenMalformed.Message, env.Message)
}

func TestVendorSignup_MinimalBusinessFields(t *testing.T) {
	suite := NewTestSuite(t)
	body := map[string]interface{}{
		"businessName":        "Acme",
		"businessDescription": "d",
		"businessPhoneNumber": "123",
		"businessEmail":       "a@acme.com",
		"businessPassword":    "Passw0rd!",
		"agreeToTerms":        true,
	}

	w, env := suite.Do(t, http.MethodPost, RolePath(domain.RoleVendor)+"/signup", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := env.Token
	require.NotEmpty(t, first)
	assert.NotContains(t, w.Body.String(), "businessPassword")
	assert.NotContains(t, w.Body.String(), "Passw0rd!")

	w, env = suite.Do(t, http.MethodPost, RolePath(domain.RoleVendor)+"/login", "",
		map[string]string{"businessEmail": "a@acme.com", "businessPassword": "Passw0rd!"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := env.Token
	require.NotEmpty(t, second)

	for _, token := range []string{first, second} {
		w, _ = suite.Do(t, http.MethodPost, "/api/auth/verify", token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w, env = suite.Do(t, http.MethodPost, RolePath(domain.RoleVendor)+"/login", "",
		map[string]string{"businessEmail": "a@acme.com", "businessPassword": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
}

func TestSignup_PasswordOverBcryptLimit(t *testing.T) {
	suite := NewTestSuite(t)
	body := SignupBody(domain.RoleCustomer, uniqueEmail("long"))
	body["password"] = "Aa1" + strings.Repeat("x", 70)

	w, env := suite.Do(t, http.MethodPost, RolePath(domain.RoleCustomer)+"/signup", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.False(t, env.Success)
}
