package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studentpulse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "usertokenrepo@example.com", types.RoleStudent)

	makeToken := func(access, refresh string) *types.UserToken {
		return &types.UserToken{
			UserID:       u.ID,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    time.Now().Add(1 * time.Hour),
		}
	}

	t1 := makeToken("access-1", "refresh-1")
	if _, err := repo.Create(dbc, []*types.UserToken{t1}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if t1.ID == uuid.Nil {
		t.Fatalf("Create: expected id to be assigned")
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{t1.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByRefreshTokens(dbc, []string{t1.RefreshToken}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByRefreshTokens: err=%v len=%d", err, len(rows))
	}

	if err := repo.UpdateAccessToken(dbc, t1.ID, "access-1b"); err != nil {
		t.Fatalf("UpdateAccessToken: %v", err)
	}
	rows, err := repo.GetByIDs(dbc, []uuid.UUID{t1.ID})
	if err != nil || len(rows) != 1 || rows[0].AccessToken != "access-1b" {
		t.Fatalf("GetByIDs after update: err=%v rows=%+v", err, rows)
	}

	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{t1.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{t1.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("GetByIDs after delete: err=%v len=%d", err, len(rows))
	}

	t2 := makeToken("access-2", "refresh-2")
	t3 := makeToken("access-3", "refresh-3")
	if _, err := repo.Create(dbc, []*types.UserToken{t2, t3}); err != nil {
		t.Fatalf("Create (2): %v", err)
	}
	if err := repo.FullDeleteByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil {
		t.Fatalf("FullDeleteByUserIDs: %v", err)
	}
	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("GetByUserIDs after delete: err=%v len=%d", err, len(rows))
	}
}
