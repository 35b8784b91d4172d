package auth

import (
	"context"
	"errors"
	"testing"

	"facility-report/internal/features/user"
	"facility-report/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MockUserRepo struct {
	users map[string]*user.User
}

func newMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: make(map[string]*user.User)}
}

func (m *MockUserRepo) Create(ctx context.Context, usr *user.User) error {
	if usr.ID.IsZero() {
		usr.ID = primitive.NewObjectID()
	}
	m.users[usr.Email] = usr
	return nil
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if usr, ok := m.users[email]; ok {
		return usr, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	for _, usr := range m.users {
		if usr.ID.Hex() == id {
			return usr, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockUserRepo) EnsureIndexes(ctx context.Context) error { return nil }

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo)

	usr, err := service.Register(context.Background(), "a@up.ac.th", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if usr.Role != user.RoleUser {
		t.Errorf("Role = %q, want %q", usr.Role, user.RoleUser)
	}
	if usr.Password == "secret123" {
		t.Error("password stored in plaintext")
	}
	if !utils.CheckPasswordHash("secret123", usr.Password) {
		t.Error("stored hash does not match original password")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo)

	if _, err := service.Register(context.Background(), "a@up.ac.th", "secret123"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := service.Register(context.Background(), "a@up.ac.th", "other")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo)

	if _, err := service.Register(context.Background(), "a@up.ac.th", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, _, err := service.Login(context.Background(), "a@up.ac.th", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	service := NewAuthService(newMockUserRepo())

	_, _, err := service.Login(context.Background(), "nobody@up.ac.th", "pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginReturnsValidToken(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo)

	usr, err := service.Register(context.Background(), "a@up.ac.th", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, _, err := service.Login(context.Background(), "a@up.ac.th", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != usr.ID.Hex() {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, usr.ID.Hex())
	}
	if claims.IsAdmin() {
		t.Error("fresh account must not carry the admin role")
	}
}
