package user

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ismat-Samadov/educy/core"
)

type fakeRepo struct {
	users []User
}

func (r *fakeRepo) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error {
	for _, usr := range r.users {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if username != "" && usr.Username == username {
			return ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return ErrEmailExists
		}
	}
	return nil
}

func isExcluded(usr User, excludedUsers []User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}

func (r *fakeRepo) CreateUser(ctx context.Context, usr User) (User, error)    { return usr, nil }
func (r *fakeRepo) GetUser(ctx context.Context, f GetFilter) (User, error)    { return User{}, ErrNotFound }
func (r *fakeRepo) QueryAllUsers(ctx context.Context) ([]User, error)         { return r.users, nil }
func (r *fakeRepo) UpdateOrCreateUser(ctx context.Context, u User) (User, error) {
	return u, nil
}
func (r *fakeRepo) UpdateUser(ctx context.Context, u User, isActive *bool) (User, error) {
	return u, nil
}
func (r *fakeRepo) DeleteUsersByID(ctx context.Context, ids ...string) error { return nil }

type noopMail struct{}

func (noopMail) SendMessages(messages ...*core.EmailMessage) {}

func TestNewUserValidate(t *testing.T) {
	existing := User{ID: "1", Username: "taken", Email: "taken@test.cd"}
	svc := NewService(&fakeRepo{users: []User{existing}}, core.FixedClock{Time: time.Now().UTC()}, noopMail{})

	valid := func() NewUser {
		return NewUser{
			Name:            "Jo Doe",
			Username:        "jodoe",
			Email:           "jo@test.cd",
			Password:        "w3ird&pass",
			PasswordConfirm: "w3ird&pass",
			Role:            RoleStudent,
		}
	}

	tests := []struct {
		name      string
		mutate    func(nu *NewUser)
		wantField string
	}{
		{name: "ok", mutate: func(nu *NewUser) {}},
		{name: "missing role", mutate: func(nu *NewUser) { nu.Role = "" }, wantField: "role"},
		{name: "bogus role", mutate: func(nu *NewUser) { nu.Role = "lol" }, wantField: "role"},
		{name: "bad email", mutate: func(nu *NewUser) { nu.Email = "nope" }, wantField: "email"},
		{name: "no username nor email", mutate: func(nu *NewUser) { nu.Username = ""; nu.Email = "" }, wantField: "username"},
		{name: "password mismatch", mutate: func(nu *NewUser) { nu.PasswordConfirm = "other&pass1" }, wantField: "password_confirm"},
		{name: "password too short", mutate: func(nu *NewUser) { nu.Password = "short1"; nu.PasswordConfirm = "short1" }, wantField: "password"},
		{name: "password all numeric", mutate: func(nu *NewUser) { nu.Password = "123456789"; nu.PasswordConfirm = "123456789" }, wantField: "password"},
		{name: "password with whitespace", mutate: func(nu *NewUser) { nu.Password = "we ird&pass"; nu.PasswordConfirm = "we ird&pass" }, wantField: "password"},
		{name: "password similar to email", mutate: func(nu *NewUser) { nu.Password = "jo@test.cdx"; nu.PasswordConfirm = "jo@test.cdx" }, wantField: "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			tt.mutate(&nu)

			err := nu.Validate(svc)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			fields := make([]string, 0, len(verrs))
			for _, vErr := range verrs {
				fields = append(fields, vErr.Field())
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestNewUserValidateUniqueness(t *testing.T) {
	existing := User{ID: "1", Username: "taken", Email: "taken@test.cd"}
	svc := NewService(&fakeRepo{users: []User{existing}}, core.FixedClock{Time: time.Now().UTC()}, noopMail{})

	nu := NewUser{
		Name:            "Jo Doe",
		Username:        "taken",
		Email:           "jo@test.cd",
		Password:        "w3ird&pass",
		PasswordConfirm: "w3ird&pass",
		Role:            RoleStudent,
	}
	err := nu.Validate(svc)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "username", verr.Fields[0].Field)

	// the original record is excluded when updating
	uu := UpdateUser{Email: "taken@test.cd"}
	require.NoError(t, uu.Validate(existing, svc))
}
