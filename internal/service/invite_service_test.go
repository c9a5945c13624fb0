package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/repository"
	"github.com/kenerlee/navix-server/internal/testutil"
)

func setupInviteService(t *testing.T) (*InviteService, *repository.InviteRepository, *repository.ProfileRepository, func()) {
	t.Helper()

	client, cleanup := testutil.SetupTestRedis(t)
	cfg := testutil.TestConfig()
	profileRepo := repository.NewProfileRepository(client)
	inviteRepo := repository.NewInviteRepository(client)
	profiles := NewProfileService(profileRepo, nil, cfg)
	svc := NewInviteService(inviteRepo, profiles, nil, cfg)
	return svc, inviteRepo, profileRepo, cleanup
}

func TestRandomCode_AlphabetAndLength(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := randomCode(inviteCodeLength)
		require.NoError(t, err)
		assert.Len(t, code, 8)
		for _, ch := range code {
			assert.Contains(t, inviteAlphabet, string(ch))
		}
		// 易混淆字符不得出现
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "1")
	}
}

func TestInviteService_CreateAdminBatch(t *testing.T) {
	svc, _, _, cleanup := setupInviteService(t)
	defer cleanup()

	invites, err := svc.CreateAdminBatch(context.Background(), "admin_1", 5)
	require.NoError(t, err)
	require.Len(t, invites, 5)

	seen := map[string]bool{}
	for _, inv := range invites {
		assert.Equal(t, model.InviteKindAdmin, inv.Kind)
		assert.Equal(t, "admin_1", inv.CreatedBy)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), inv.ExpiresAt, time.Minute)
		assert.False(t, seen[inv.Code])
		seen[inv.Code] = true
	}
}

func TestInviteService_CreateAdminBatch_ClampsCount(t *testing.T) {
	svc, _, _, cleanup := setupInviteService(t)
	defer cleanup()

	invites, err := svc.CreateAdminBatch(context.Background(), "admin_1", 100)
	require.NoError(t, err)
	assert.Len(t, invites, 20)

	invites, err = svc.CreateAdminBatch(context.Background(), "admin_1", 0)
	require.NoError(t, err)
	assert.Len(t, invites, 1)
}

func TestInviteService_CreateUserInvite(t *testing.T) {
	svc, _, profileRepo, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()
	p := testutil.NewProfile()
	require.NoError(t, profileRepo.Create(ctx, p))

	inv, err := svc.CreateUserInvite(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InviteKindUser, inv.Kind)
	assert.Equal(t, p.ID, inv.CreatedBy)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), inv.ExpiresAt, time.Minute)
}

func TestInviteService_CreateUserInvite_GuestRejected(t *testing.T) {
	svc, _, profileRepo, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()
	p := testutil.NewProfile(testutil.WithRole(model.RoleGuest))
	require.NoError(t, profileRepo.Create(ctx, p))

	_, err := svc.CreateUserInvite(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotActivated)
}

func TestInviteService_CreateUserInvite_Cap(t *testing.T) {
	svc, inviteRepo, profileRepo, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()
	p := testutil.NewProfile()
	require.NoError(t, profileRepo.Create(ctx, p))

	for i := 0; i < 10; i++ {
		_, err := svc.CreateUserInvite(ctx, p.ID)
		require.NoError(t, err)
	}

	_, err := svc.CreateUserInvite(ctx, p.ID)
	assert.ErrorIs(t, err, ErrInviteLimit)

	// 一个码被消耗后名额立即释放
	invites, err := inviteRepo.ListByCreator(ctx, p.ID)
	require.NoError(t, err)
	claimed, err := inviteRepo.ClaimUse(ctx, invites[0].Code, "someone", time.Now())
	require.NoError(t, err)
	require.True(t, claimed)
	invites[0].UsedBy = "someone"
	require.NoError(t, inviteRepo.ReleaseSlot(ctx, invites[0]))

	_, err = svc.CreateUserInvite(ctx, p.ID)
	assert.NoError(t, err)
}

func TestInviteService_Validate_Normalization(t *testing.T) {
	svc, inviteRepo, _, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, inviteRepo.Create(ctx, testutil.NewInvite("admin_1", testutil.WithCode("ABCD2345"))))

	inv, err := svc.Validate(ctx, "  abcd2345 ")
	require.NoError(t, err)
	assert.Equal(t, "ABCD2345", inv.Code)
}

func TestInviteService_Validate_Errors(t *testing.T) {
	svc, inviteRepo, _, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()

	// 太短的输入直接拒绝，不查库
	_, err := svc.Validate(ctx, "AB1")
	assert.ErrorIs(t, err, ErrInviteNotFound)

	_, err = svc.Validate(ctx, "MISSING2")
	assert.ErrorIs(t, err, ErrInviteNotFound)

	require.NoError(t, inviteRepo.Create(ctx,
		testutil.NewInvite("admin_1", testutil.WithCode("USED2345"), testutil.WithUsedBy("user_x"))))
	_, err = svc.Validate(ctx, "USED2345")
	assert.ErrorIs(t, err, ErrInviteUsed)

	require.NoError(t, inviteRepo.Create(ctx,
		testutil.NewInvite("admin_1", testutil.WithCode("GONE2345"),
			testutil.WithExpiresAt(time.Now().Add(-time.Hour)))))
	_, err = svc.Validate(ctx, "GONE2345")
	assert.ErrorIs(t, err, ErrInviteExpired)
}

func TestInviteService_Activate(t *testing.T) {
	svc, inviteRepo, profileRepo, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()
	guest := testutil.NewProfile(testutil.WithRole(model.RoleGuest))
	require.NoError(t, profileRepo.Create(ctx, guest))
	require.NoError(t, inviteRepo.Create(ctx, testutil.NewInvite("admin_1", testutil.WithCode("ACTV2345"))))

	p, err := svc.Activate(ctx, "actv2345", guest.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, p.Role)
	assert.Equal(t, "admin_1", p.InvitedBy)
	assert.Equal(t, "ACTV2345", p.InviteCodeUsed)

	inv, err := inviteRepo.Get(ctx, "ACTV2345")
	require.NoError(t, err)
	assert.Equal(t, guest.ID, inv.UsedBy)
	require.NotNil(t, inv.UsedAt)
}

func TestInviteService_Activate_AlreadyActivated(t *testing.T) {
	svc, inviteRepo, profileRepo, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.NewProfile()
	require.NoError(t, profileRepo.Create(ctx, user))
	require.NoError(t, inviteRepo.Create(ctx, testutil.NewInvite("admin_1", testutil.WithCode("ONCE2345"))))

	_, err := svc.Activate(ctx, "ONCE2345", user.ID)
	assert.ErrorIs(t, err, ErrAlreadyActivated)
}

func TestInviteService_Activate_UsedCodeRejected(t *testing.T) {
	svc, inviteRepo, profileRepo, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()
	g1 := testutil.NewProfile(testutil.WithRole(model.RoleGuest))
	g2 := testutil.NewProfile(testutil.WithRole(model.RoleGuest))
	require.NoError(t, profileRepo.Create(ctx, g1))
	require.NoError(t, profileRepo.Create(ctx, g2))
	require.NoError(t, inviteRepo.Create(ctx, testutil.NewInvite("admin_1", testutil.WithCode("RACE2345"))))

	_, err := svc.Activate(ctx, "RACE2345", g1.ID)
	require.NoError(t, err)

	_, err = svc.Activate(ctx, "RACE2345", g2.ID)
	assert.ErrorIs(t, err, ErrInviteUsed)
}

func TestInviteService_Activate_ReleasesUserSlot(t *testing.T) {
	svc, inviteRepo, profileRepo, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()
	creator := testutil.NewProfile()
	guest := testutil.NewProfile(testutil.WithRole(model.RoleGuest))
	require.NoError(t, profileRepo.Create(ctx, creator))
	require.NoError(t, profileRepo.Create(ctx, guest))

	inv, err := svc.CreateUserInvite(ctx, creator.ID)
	require.NoError(t, err)

	n, _ := inviteRepo.ActiveCount(ctx, creator.ID)
	require.Equal(t, 1, n)

	_, err = svc.Activate(ctx, inv.Code, guest.ID)
	require.NoError(t, err)

	n, err = inviteRepo.ActiveCount(ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInviteService_ListMine(t *testing.T) {
	svc, inviteRepo, profileRepo, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()
	creator := testutil.NewProfile()
	require.NoError(t, profileRepo.Create(ctx, creator))

	for i := 0; i < 3; i++ {
		_, err := svc.CreateUserInvite(ctx, creator.ID)
		require.NoError(t, err)
	}

	invites, _, err := svc.ListMine(ctx, creator.ID)
	require.NoError(t, err)
	claimed, err := inviteRepo.ClaimUse(ctx, invites[0].Code, "someone", time.Now())
	require.NoError(t, err)
	require.True(t, claimed)
	used, _ := inviteRepo.Get(ctx, invites[0].Code)
	require.NoError(t, inviteRepo.ReleaseSlot(ctx, used))

	invites, stats, err := svc.ListMine(ctx, creator.ID)
	require.NoError(t, err)
	assert.Len(t, invites, 3)
	assert.Equal(t, 3, stats.TotalCreated)
	assert.Equal(t, 1, stats.TotalUsed)
	assert.Equal(t, 8, stats.Available)
}

func TestInviteService_SweepExpired(t *testing.T) {
	svc, inviteRepo, profileRepo, cleanup := setupInviteService(t)
	defer cleanup()

	ctx := context.Background()
	creator := testutil.NewProfile()
	require.NoError(t, profileRepo.Create(ctx, creator))

	// 两个过期未使用、一个未过期
	expired := time.Now().Add(-time.Hour)
	require.NoError(t, inviteRepo.Create(ctx, testutil.NewInvite(creator.ID,
		testutil.WithKind(model.InviteKindUser), testutil.WithCode("EXPA2345"), testutil.WithExpiresAt(expired))))
	require.NoError(t, inviteRepo.Create(ctx, testutil.NewInvite(creator.ID,
		testutil.WithKind(model.InviteKindUser), testutil.WithCode("EXPB2345"), testutil.WithExpiresAt(expired))))
	require.NoError(t, inviteRepo.Create(ctx, testutil.NewInvite(creator.ID,
		testutil.WithKind(model.InviteKindUser), testutil.WithCode("LIVE2345"))))

	released, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	n, err := inviteRepo.ActiveCount(ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 重复清扫不重复归还
	released, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, released)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABCD2345", NormalizeCode("  abcd2345\n"))
	assert.Equal(t, "", NormalizeCode("   "))
	assert.Equal(t, strings.ToUpper("xyzw2345"), NormalizeCode("xyzw2345"))
}
