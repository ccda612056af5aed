package service

import (
	"context"
	"testing"

	"UzChat/global"
	"UzChat/service/storage"
	"UzChat/tools/errs"
	jwtlib "UzChat/tools/security"
)

func TestMain(m *testing.M) {
	global.ConfigAll()
	m.Run()
}

func TestRegisterAndLogin(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()

	u, err := Register(ctx, store, RegisterParams{Username: "aziz", Password: "s3cret", Nickname: "Aziz"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == "" || u.Username != "aziz" || u.IsAdmin {
		t.Fatalf("user = %+v", u)
	}

	res, err := Login(ctx, store, LoginParams{Username: "aziz", Password: "s3cret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" || res.User.ID != u.ID {
		t.Fatalf("login result = %+v", res)
	}

	// the token carries the identity the middleware will trust
	uid, isAdmin, err := jwtlib.Verify(jwtlib.Options{Secret: global.Config.JWTSecret}, res.Token)
	if err != nil || uid != u.ID || isAdmin {
		t.Fatalf("verify: uid=%q admin=%v err=%v", uid, isAdmin, err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()

	if _, err := Register(ctx, store, RegisterParams{Username: "aziz", Password: "x1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := Register(ctx, store, RegisterParams{Username: "aziz", Password: "x2"})
	if !errs.ErrRecordExists.Is(err) {
		t.Fatalf("err = %v, want record-exists", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()

	if _, err := Register(ctx, store, RegisterParams{Username: "aziz", Password: "right"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, pw := range []string{"wrong", ""} {
		if _, err := Login(ctx, store, LoginParams{Username: "aziz", Password: pw}); err == nil {
			t.Errorf("login with password %q succeeded", pw)
		}
	}
	if _, err := Login(ctx, store, LoginParams{Username: "ghost", Password: "x"}); !errs.ErrUnauthorized.Is(err) {
		t.Errorf("unknown user: err = %v, want unauthorized", err)
	}
}

func TestAdminBootstrapOnLogin(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()

	// first admin login creates the account
	res, err := Login(ctx, store, LoginParams{Username: AdminUsername, Password: AdminPassword})
	if err != nil {
		t.Fatalf("bootstrap login: %v", err)
	}
	if !res.User.IsAdmin || res.User.Nickname != "Administrator" {
		t.Fatalf("admin user = %+v", res.User)
	}

	// second login reuses it
	again, err := Login(ctx, store, LoginParams{Username: AdminUsername, Password: AdminPassword})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.User.ID != res.User.ID {
		t.Fatalf("admin recreated: %s vs %s", again.User.ID, res.User.ID)
	}
}

func TestUpdateProfileUsernameCollision(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()

	a, err := Register(ctx, store, RegisterParams{Username: "aziz", Password: "x"})
	if err != nil {
		t.Fatalf("register a: %v", err)
	}
	b, err := Register(ctx, store, RegisterParams{Username: "bobur", Password: "x"})
	if err != nil {
		t.Fatalf("register b: %v", err)
	}

	_, err = UpdateProfile(ctx, store, b.ID, UpdateProfileParams{Username: "aziz"})
	if !errs.ErrRecordExists.Is(err) {
		t.Fatalf("err = %v, want record-exists", err)
	}

	got, err := UpdateProfile(ctx, store, a.ID, UpdateProfileParams{Nickname: "Azizbek"})
	if err != nil || got.Nickname != "Azizbek" || got.Username != "aziz" {
		t.Fatalf("profile = %+v err=%v", got, err)
	}
}

func TestMakeAdmin(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()

	u, err := Register(ctx, store, RegisterParams{Username: "aziz", Password: "x"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := MakeAdmin(ctx, store, u.ID); err != nil {
		t.Fatalf("make admin: %v", err)
	}
	got, _ := store.GetUser(ctx, u.ID)
	if got == nil || !got.IsAdmin {
		t.Fatalf("user = %+v", got)
	}
	if err := MakeAdmin(ctx, store, "ghost"); !errs.ErrNotFound.Is(err) {
		t.Fatalf("err = %v, want not-found", err)
	}
}
