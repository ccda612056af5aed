package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"UzChat/global"
	usermodel "UzChat/module/user/model"
	"UzChat/service/storage"
	"UzChat/tools/errs"
	"UzChat/tools/ids"
	jwtlib "UzChat/tools/security"
)

// Bootstrap admin credentials. Logging in with these creates (or
// promotes) the admin account on first use.
const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
)

type RegisterParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type LoginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	User     *usermodel.User `json:"user"`
	Token    string          `json:"token"`
	ExpireAt time.Time       `json:"expireAt"`
}

// Register creates a new account. Usernames are unique; the password is
// stored as a bcrypt hash.
func Register(ctx context.Context, store storage.Store, in RegisterParams) (*usermodel.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, errs.ErrBadRequest.WrapMsg("username and password are required")
	}

	existing, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.ErrRecordExists.WrapMsg("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.ErrInternal.WrapMsg("hash password", "err", err)
	}

	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		nickname = username
	}

	u := &usermodel.User{
		ID:       ids.GenerateString(),
		Username: username,
		Nickname: nickname,
		Password: string(hash),
		IsAdmin:  username == AdminUsername && in.Password == AdminPassword,
	}
	return store.CreateUser(ctx, u)
}

// Login checks credentials and issues a JWT. The admin bootstrap pair
// creates the admin account if it does not exist yet and promotes it if
// it exists without the flag.
func Login(ctx context.Context, store storage.Store, in LoginParams) (*LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, errs.ErrBadRequest.WrapMsg("username and password are required")
	}

	var u *usermodel.User
	var err error

	if username == AdminUsername && in.Password == AdminPassword {
		u, err = bootstrapAdmin(ctx, store)
		if err != nil {
			return nil, err
		}
	} else {
		u, err = store.GetUserByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, errs.ErrUnauthorized.WrapMsg("invalid username or password")
		}
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)) != nil {
			return nil, errs.ErrUnauthorized.WrapMsg("invalid username or password")
		}
	}

	conf := global.Config
	token, expireAt, err := jwtlib.Generate(jwtlib.Options{
		Secret: conf.JWTSecret,
		TTL:    conf.JWTTTL,
	}, u.ID, u.IsAdmin)
	if err != nil {
		return nil, errs.ErrInternal.WrapMsg("issue token", "err", err)
	}
	return &LoginResult{User: u, Token: token, ExpireAt: expireAt}, nil
}

func bootstrapAdmin(ctx context.Context, store storage.Store) (*usermodel.User, error) {
	u, err := store.GetUserByUsername(ctx, AdminUsername)
	if err != nil {
		return nil, err
	}
	if u == nil {
		hash, herr := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.DefaultCost)
		if herr != nil {
			return nil, errs.ErrInternal.WrapMsg("hash password", "err", herr)
		}
		return store.CreateUser(ctx, &usermodel.User{
			ID:       ids.GenerateString(),
			Username: AdminUsername,
			Nickname: "Administrator",
			Password: string(hash),
			IsAdmin:  true,
		})
	}
	if !u.IsAdmin {
		u.IsAdmin = true
		return store.UpsertUser(ctx, u)
	}
	return u, nil
}

// UpdateProfileParams carries the mutable profile fields.
type UpdateProfileParams struct {
	Username        string `json:"username"`
	Nickname        string `json:"nickname"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// UpdateProfile upserts the caller's profile. A username change is
// rejected if another account holds it.
func UpdateProfile(ctx context.Context, store storage.Store, userID string, in UpdateProfileParams) (*usermodel.User, error) {
	username := strings.TrimSpace(in.Username)
	if username != "" {
		existing, err := store.GetUserByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, errs.ErrRecordExists.WrapMsg("username already taken")
		}
	}

	current, err := store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	u := &usermodel.User{ID: userID}
	if current != nil {
		*u = *current
	}
	if username != "" {
		u.Username = username
	}
	if u.Username == "" {
		u.Username = "user_" + userID
	}
	if n := strings.TrimSpace(in.Nickname); n != "" {
		u.Nickname = n
	}
	if u.Nickname == "" {
		u.Nickname = u.Username
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if in.ProfileImageURL != "" {
		u.ProfileImageURL = in.ProfileImageURL
	}
	return store.UpsertUser(ctx, u)
}

// MakeAdmin grants the admin flag to target.
func MakeAdmin(ctx context.Context, store storage.Store, targetID string) error {
	target, err := store.GetUser(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return errs.ErrNotFound.WrapMsg("user not found")
	}
	target.IsAdmin = true
	_, err = store.UpsertUser(ctx, target)
	return err
}
