package account

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmailInUse   = errors.New("email already in use")
)

// Provider is the external identity service.
type Provider interface {
	VerifyIDToken(ctx context.Context, idToken string) (Identity, error)
	GetUser(ctx context.Context, uid string) (Identity, error)
	UpdatePassword(ctx context.Context, uid, password string) error
	UpdateEmail(ctx context.Context, uid, email string) error
}

type FirebaseProvider struct {
	client *auth.Client
}

// NewFirebaseProvider connects to Firebase Auth. Without a credentials file
// it falls back to application default credentials.
func NewFirebaseProvider(ctx context.Context, projectID, credentialsFile string) (*FirebaseProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (Identity, error) {
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email, _ := token.Claims["email"].(string)
	return Identity{UID: token.UID, Email: email}, nil
}

func (p *FirebaseProvider) GetUser(ctx context.Context, uid string) (Identity, error) {
	user, err := p.client.GetUser(ctx, uid)
	if err != nil {
		return Identity{}, fmt.Errorf("get user %s: %w", uid, err)
	}
	return Identity{UID: user.UID, Email: user.Email}, nil
}

func (p *FirebaseProvider) UpdatePassword(ctx context.Context, uid, password string) error {
	_, err := p.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Password(password))
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (p *FirebaseProvider) UpdateEmail(ctx context.Context, uid, email string) error {
	_, err := p.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Email(email))
	if auth.IsEmailAlreadyExists(err) {
		return ErrEmailInUse
	}
	if err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	return nil
}
