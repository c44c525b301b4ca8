package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
	gstore "github.com/S-P-A-N-N-E-R-S/Backend-sub000/store"
)

func TestCreateAndGetUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)

	userID, err := gw.CreateUser(ctx, "alice", []byte("hash"), []byte("salt"), job.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	u, err := gw.GetUser(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if u.UserID != userID || u.Role != job.RoleUser || u.Blocked {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestCreateUserDuplicateName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)

	if _, err := gw.CreateUser(ctx, "bob", []byte("h"), []byte("s"), job.RoleUser); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.CreateUser(ctx, "bob", []byte("h2"), []byte("s2"), job.RoleUser); err == nil {
		t.Fatal("expected duplicate user name to be rejected")
	}
}

func TestSetUserBlockedAndRole(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)

	userID, err := gw.CreateUser(ctx, "carol", []byte("h"), []byte("s"), job.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	if err := gw.SetUserBlocked(ctx, userID, true); err != nil {
		t.Fatal(err)
	}
	if err := gw.ChangeUserRole(ctx, userID, job.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	u, err := gw.ResolveUser(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if !u.Blocked || u.Role != job.RoleAdmin {
		t.Fatalf("unexpected user state: %+v", u)
	}
	if u.CanAuthenticate() {
		t.Fatal("blocked user should not be able to authenticate")
	}
}

func TestChangeUserAuth(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)

	userID, err := gw.CreateUser(ctx, "dave", []byte("old-hash"), []byte("old-salt"), job.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	if err := gw.ChangeUserAuth(ctx, userID, []byte("new-hash"), []byte("new-salt")); err != nil {
		t.Fatal(err)
	}

	u, err := gw.GetUser(ctx, "dave")
	if err != nil {
		t.Fatal(err)
	}
	if string(u.PasswordHash) != "new-hash" || string(u.Salt) != "new-salt" {
		t.Fatalf("password/salt not updated: %+v", u)
	}
}

func TestDeleteUserCascadesJobs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)

	userID, err := gw.CreateUser(ctx, "erin", []byte("h"), []byte("s"), job.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	jobID, err := gw.AddJob(ctx, userID, "h", "n", job.Generic, []byte("r"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := gw.AbortWaitingForUser(ctx, userID); err != nil {
		t.Fatal(err)
	}
	if err := gw.DeleteUser(ctx, userID); err != nil {
		t.Fatal(err)
	}

	if _, err := gw.ResolveUser(ctx, userID); err == nil {
		t.Fatal("expected user to be gone")
	}
	if _, err := gw.ResolveJobEntry(ctx, jobID); err == nil {
		t.Fatal("expected the user's job to be deleted with the user")
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)

	if err := gw.DeleteUser(ctx, 9999); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestListUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)

	if _, err := gw.CreateUser(ctx, "frank", []byte("h"), []byte("s"), job.RoleUser); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.CreateUser(ctx, "grace", []byte("h"), []byte("s"), job.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	users, err := gw.ListUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestResolveUserByNameOrID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)

	userID, err := gw.CreateUser(ctx, "henry", []byte("h"), []byte("s"), job.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	byName, err := gw.ResolveUserByNameOrID(ctx, "henry")
	if err != nil {
		t.Fatal(err)
	}
	if byName.UserID != userID {
		t.Fatalf("expected user id %d, got %d", userID, byName.UserID)
	}

	byID, err := gw.ResolveUserByNameOrID(ctx, fmt.Sprintf("%d", userID))
	if err != nil {
		t.Fatal(err)
	}
	if byID.Name != "henry" {
		t.Fatalf("expected name henry, got %s", byID.Name)
	}

	if _, err := gw.ResolveUserByNameOrID(ctx, "nobody"); err == nil {
		t.Fatal("expected not-found error for unknown name")
	}
}
