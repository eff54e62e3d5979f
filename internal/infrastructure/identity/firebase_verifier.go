package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"google.golang.org/api/option"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier implements domain.IdentityVerifier with Firebase ID tokens.
type FirebaseVerifier struct {
	client idTokenVerifier
	log    *slog.Logger
}

// NewFirebaseVerifier initializes the Firebase Admin SDK. With no project
// configured the verifier rejects every assertion with domain.ErrSocialUnavailable.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string, log *slog.Logger) (domain.IdentityVerifier, error) {
	if projectID == "" && credentialsFile == "" {
		log.Warn("social sign-in disabled: firebase is not configured")
		return &FirebaseVerifier{log: log}, nil
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client, log: log}, nil
}

// VerifyIdentity implements domain.IdentityVerifier
func (v *FirebaseVerifier) VerifyIdentity(ctx context.Context, assertion string) (*domain.ExternalIdentity, error) {
	if v.client == nil {
		return nil, domain.ErrSocialUnavailable
	}
	if assertion == "" {
		return nil, domain.ErrTokenMalformed
	}

	token, err := v.client.VerifyIDToken(ctx, assertion)
	if err != nil {
		v.log.Debug("firebase token rejected", "error", err)
		return nil, domain.WrapAuthError(domain.KindMalformedToken, "invalid or expired social login token", err)
	}
	return identityFromToken(token)
}

func identityFromToken(token *auth.Token) (*domain.ExternalIdentity, error) {
	id := &domain.ExternalIdentity{
		UID:      token.UID,
		Provider: token.Firebase.SignInProvider,
	}
	id.Email, _ = token.Claims["email"].(string)
	id.FullName, _ = token.Claims["name"].(string)
	id.Picture, _ = token.Claims["picture"].(string)
	id.EmailVerified, _ = token.Claims["email_verified"].(bool)

	if id.UID == "" {
		return nil, domain.ErrTokenMalformed
	}
	if id.Email == "" {
		return nil, domain.ErrValidation("social account has no email address")
	}
	id.Email = domain.NormalizeEmail(id.Email)
	if id.FullName == "" {
		id.FullName = strings.SplitN(id.Email, "@", 2)[0]
	}
	if id.Provider == "" {
		id.Provider = domain.ProviderGoogle
	}
	return id, nil
}
