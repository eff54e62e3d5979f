package identity

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/logger"
)

type stubVerifier struct {
	token *auth.Token
	err   error
}

func (s *stubVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	return s.token, s.err
}

func TestFirebaseVerifier_Disabled(t *testing.T) {
	v, err := NewFirebaseVerifier(context.Background(), "", "", logger.Discard())
	require.NoError(t, err)

	_, err = v.VerifyIdentity(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrSocialUnavailable)
}

func TestFirebaseVerifier_VerifyIdentity(t *testing.T) {
	tests := []struct {
		name     string
		token    *auth.Token
		err      error
		want     *domain.ExternalIdentity
		wantKind domain.ErrorKind
	}{
		{
			name: "full claims",
			token: &auth.Token{
				UID:      "uid-1",
				Firebase: auth.FirebaseInfo{SignInProvider: "facebook.com"},
				Claims: map[string]interface{}{
					"email":          "Jane.Doe@Example.com",
					"name":           "Jane Doe",
					"picture":        "https://img.example.com/j.png",
					"email_verified": true,
				},
			},
			want: &domain.ExternalIdentity{
				UID:           "uid-1",
				Provider:      "facebook.com",
				Email:         "jane.doe@example.com",
				FullName:      "Jane Doe",
				Picture:       "https://img.example.com/j.png",
				EmailVerified: true,
			},
		},
		{
			name: "name falls back to email local part",
			token: &auth.Token{
				UID:    "uid-2",
				Claims: map[string]interface{}{"email": "kemi@example.com"},
			},
			want: &domain.ExternalIdentity{
				UID:      "uid-2",
				Provider: domain.ProviderGoogle,
				Email:    "kemi@example.com",
				FullName: "kemi",
			},
		},
		{
			name:     "no email",
			token:    &auth.Token{UID: "uid-3", Claims: map[string]interface{}{}},
			wantKind: domain.KindValidation,
		},
		{
			name:     "rejected by firebase",
			err:      errors.New("ID token has expired"),
			wantKind: domain.KindMalformedToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &FirebaseVerifier{client: &stubVerifier{token: tt.token, err: tt.err}, log: logger.Discard()}

			got, err := v.VerifyIdentity(context.Background(), "assertion")
			if tt.wantKind != "" {
				assert.Nil(t, got)
				assert.Equal(t, tt.wantKind, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirebaseVerifier_EmptyAssertion(t *testing.T) {
	v := &FirebaseVerifier{client: &stubVerifier{}, log: logger.Discard()}
	_, err := v.VerifyIdentity(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrTokenMalformed)
}
