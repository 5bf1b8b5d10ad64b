package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arhamdeez/envVault/internal/blobstore"
	"github.com/Arhamdeez/envVault/internal/model"
	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
	"github.com/Arhamdeez/envVault/internal/pkg/timeutil"
	"github.com/Arhamdeez/envVault/internal/repo"
	"github.com/Arhamdeez/envVault/internal/service"
	"github.com/Arhamdeez/envVault/internal/testutil"
	"github.com/Arhamdeez/envVault/internal/token"
)

type fixture struct {
	db     *sql.DB
	store  blobstore.Store
	files  *service.FileService
	shares *service.ShareService
	audits *service.AuditService
	users  *repo.UserRepo
}

func newFixture(t *testing.T) (*fixture, func()) {
	t.Helper()
	conn, cleanup := testutil.OpenTestDB(t)

	tokenService, err := token.NewService("test-hmac-secret")
	require.NoError(t, err)
	store := blobstore.NewMemory()

	fileRepo := repo.NewFileRepo(conn)
	shareRepo := repo.NewShareRepo(conn)
	auditRepo := repo.NewAuditRepo(conn)

	return &fixture{
		db:     conn,
		store:  store,
		files:  service.NewFileService(conn, fileRepo, shareRepo, auditRepo, store),
		shares: service.NewShareService(conn, fileRepo, shareRepo, auditRepo, tokenService, store),
		audits: service.NewAuditService(fileRepo, auditRepo),
		users:  repo.NewUserRepo(conn),
	}, cleanup
}

func (f *fixture) createUser(t *testing.T, id string) {
	t.Helper()
	now := timeutil.NowUnix()
	require.NoError(t, f.users.Create(context.Background(), &model.User{
		ID: id, Email: id + "@example.com", PasswordHash: "x", Ctime: now, Mtime: now,
	}))
}

func (f *fixture) createFile(t *testing.T, ownerID string, input service.FileCreateInput) *model.File {
	t.Helper()
	file, err := f.files.Create(context.Background(), ownerID, input)
	require.NoError(t, err)
	return file
}

func TestDownloadRoundTrip(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()
	ctx := context.Background()
	f.createUser(t, "owner-1")

	ciphertext := []byte("opaque-ciphertext-bytes")
	file := f.createFile(t, "owner-1", service.FileCreateInput{
		Ciphertext:     ciphertext,
		IV:             "aXYtYnl0ZXM=",
		FilenameMasked: "masked.bin",
	})

	created, err := f.shares.Create(ctx, "owner-1", service.CreateShareInput{FileID: file.ID})
	require.NoError(t, err)
	require.NotEmpty(t, created.Token)

	result, err := f.shares.DownloadByToken(ctx, created.Token, "203.0.113.7")
	require.NoError(t, err)
	require.Equal(t, ciphertext, result.Ciphertext)
	require.Equal(t, "aXYtYnl0ZXM=", result.IV)
	require.Equal(t, "masked.bin", result.FilenameMasked)
	require.Equal(t, int64(len(ciphertext)), result.Size)

	got, err := f.files.Get(ctx, "owner-1", file.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.AccessCount)

	entries, err := f.audits.ListByFile(ctx, "owner-1", file.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, model.AuditActionDownload, entries[0].Action)
	require.Equal(t, "203.0.113.7", entries[0].IP)
}

func TestUnknownTokenIsNotFound(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	_, err := f.shares.DownloadByToken(context.Background(), "never-issued-token", "")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestRevokeIsIdempotentAndPermanent(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()
	ctx := context.Background()
	f.createUser(t, "owner-1")

	file := f.createFile(t, "owner-1", service.FileCreateInput{
		Ciphertext: []byte("blob"), IV: "iv", FilenameMasked: "m",
	})
	created, err := f.shares.Create(ctx, "owner-1", service.CreateShareInput{FileID: file.ID})
	require.NoError(t, err)

	require.NoError(t, f.shares.Revoke(ctx, "owner-1", created.ShareID))
	require.NoError(t, f.shares.Revoke(ctx, "owner-1", created.ShareID))

	_, err = f.shares.DownloadByToken(ctx, created.Token, "")
	require.ErrorIs(t, err, appErr.ErrShareRevoked)
}

func TestExpiredShareBeatsOtherDenials(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()
	ctx := context.Background()
	f.createUser(t, "owner-1")

	file := f.createFile(t, "owner-1", service.FileCreateInput{
		Ciphertext: []byte("blob"), IV: "iv", FilenameMasked: "m",
	})
	created, err := f.shares.Create(ctx, "owner-1", service.CreateShareInput{
		FileID:     file.ID,
		ExpiresAt:  timeutil.NowUnix() - 60,
		UsageLimit: 1,
	})
	require.NoError(t, err)

	_, err = f.shares.DownloadByToken(ctx, created.Token, "")
	require.ErrorIs(t, err, appErr.ErrShareExpired)
}

func TestOwnershipChecks(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()
	ctx := context.Background()
	f.createUser(t, "owner-1")
	f.createUser(t, "owner-2")

	file := f.createFile(t, "owner-1", service.FileCreateInput{
		Ciphertext: []byte("blob"), IV: "iv", FilenameMasked: "m",
	})

	_, err := f.shares.Create(ctx, "owner-2", service.CreateShareInput{FileID: file.ID})
	require.ErrorIs(t, err, appErr.ErrForbidden)

	created, err := f.shares.Create(ctx, "owner-1", service.CreateShareInput{FileID: file.ID})
	require.NoError(t, err)
	require.ErrorIs(t, f.shares.Revoke(ctx, "owner-2", created.ShareID), appErr.ErrForbidden)

	_, err = f.audits.ListByFile(ctx, "owner-2", file.ID)
	require.ErrorIs(t, err, appErr.ErrForbidden)

	require.ErrorIs(t, f.files.Delete(ctx, "owner-2", file.ID), appErr.ErrForbidden)
}

func TestUsageLimitUnderConcurrency(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()
	ctx := context.Background()
	f.createUser(t, "owner-1")

	const limit = 3
	file := f.createFile(t, "owner-1", service.FileCreateInput{
		Ciphertext: []byte("blob"), IV: "iv", FilenameMasked: "m",
	})
	created, err := f.shares.Create(ctx, "owner-1", service.CreateShareInput{
		FileID:     file.ID,
		UsageLimit: limit,
	})
	require.NoError(t, err)

	errs := make(chan error, 2*limit)
	var wg sync.WaitGroup
	for i := 0; i < 2*limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.shares.DownloadByToken(ctx, created.Token, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes, exhausted := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, appErr.ErrUsageExhausted)
			exhausted++
		}
	}
	require.Equal(t, limit, successes)
	require.Equal(t, limit, exhausted)

	_, err = f.shares.DownloadByToken(ctx, created.Token, "")
	require.ErrorIs(t, err, appErr.ErrUsageExhausted)
}

func TestSingleUseFileAcrossShares(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()
	ctx := context.Background()
	f.createUser(t, "owner-1")

	file := f.createFile(t, "owner-1", service.FileCreateInput{
		Ciphertext: []byte("blob"), IV: "iv", FilenameMasked: "m",
		SingleUse: true,
	})
	shareA, err := f.shares.Create(ctx, "owner-1", service.CreateShareInput{FileID: file.ID})
	require.NoError(t, err)
	shareB, err := f.shares.Create(ctx, "owner-1", service.CreateShareInput{FileID: file.ID})
	require.NoError(t, err)

	tokens := []string{shareA.Token, shareB.Token, shareA.Token, shareB.Token, shareA.Token, shareB.Token}
	errs := make(chan error, len(tokens))
	var wg sync.WaitGroup
	for _, tok := range tokens {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			_, err := f.shares.DownloadByToken(ctx, tok, "")
			errs <- err
		}(tok)
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, appErr.ErrUsageExhausted)
		}
	}
	require.Equal(t, 1, successes)

	// A still-valid second share cannot bypass single use.
	_, err = f.shares.DownloadByToken(ctx, shareB.Token, "")
	require.ErrorIs(t, err, appErr.ErrUsageExhausted)
}

func TestDeleteFileCascades(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()
	ctx := context.Background()
	f.createUser(t, "owner-1")

	file := f.createFile(t, "owner-1", service.FileCreateInput{
		Ciphertext: []byte("blob"), IV: "iv", FilenameMasked: "m",
	})
	created, err := f.shares.Create(ctx, "owner-1", service.CreateShareInput{FileID: file.ID})
	require.NoError(t, err)
	_, err = f.shares.DownloadByToken(ctx, created.Token, "")
	require.NoError(t, err)

	require.NoError(t, f.files.Delete(ctx, "owner-1", file.ID))

	_, err = f.shares.DownloadByToken(ctx, created.Token, "")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	var audits int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM audit_logs`).Scan(&audits))
	require.Zero(t, audits)
	var shares int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM shares`).Scan(&shares))
	require.Zero(t, shares)
}

func TestPurgeExpiredFiles(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()
	ctx := context.Background()
	f.createUser(t, "owner-1")

	expired := f.createFile(t, "owner-1", service.FileCreateInput{
		Ciphertext: []byte("old"), IV: "iv", FilenameMasked: "old.bin",
		ExpiresAt: timeutil.NowUnix() - 3600,
	})
	alive := f.createFile(t, "owner-1", service.FileCreateInput{
		Ciphertext: []byte("new"), IV: "iv", FilenameMasked: "new.bin",
	})

	removed, err := f.files.PurgeExpiredBefore(ctx, timeutil.NowUnix())
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = f.files.Get(ctx, "owner-1", expired.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = f.files.Get(ctx, "owner-1", alive.ID)
	require.NoError(t, err)
}
