package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/repository"
	"github.com/kenerlee/navix-server/internal/testutil"
)

func setupConsultationService(t *testing.T) (*ConsultationService, func()) {
	t.Helper()

	client, cleanup := testutil.SetupTestRedis(t)
	return NewConsultationService(repository.NewConsultationRepository(client)), cleanup
}

func TestConsultationService_Create(t *testing.T) {
	svc, cleanup := setupConsultationService(t)
	defer cleanup()

	c, err := svc.Create(context.Background(), &dto.CreateConsultationRequest{
		Name:             "李四",
		Phone:            "13900139000",
		ConsultationType: model.ConsultationDueDiligence,
		Description:      "尽调需求",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, model.ConsultationPending, c.Status)
}

func TestConsultationService_Create_InvalidType(t *testing.T) {
	svc, cleanup := setupConsultationService(t)
	defer cleanup()

	_, err := svc.Create(context.Background(), &dto.CreateConsultationRequest{
		Name:             "李四",
		Phone:            "13900139000",
		ConsultationType: "fortune-telling",
	})
	assert.ErrorIs(t, err, ErrInvalidConsultType)
}

func TestConsultationService_ListAndUpdate(t *testing.T) {
	svc, cleanup := setupConsultationService(t)
	defer cleanup()

	ctx := context.Background()
	c, err := svc.Create(ctx, &dto.CreateConsultationRequest{
		Name:             "王五",
		Phone:            "13700137000",
		ConsultationType: model.ConsultationMembership,
	})
	require.NoError(t, err)

	items, total, err := svc.List(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)

	updated, err := svc.Update(ctx, c.ID, &dto.UpdateConsultationRequest{
		Status:     model.ConsultationContacted,
		AdminNotes: "已回电",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationContacted, updated.Status)
	assert.Equal(t, "已回电", updated.AdminNotes)
}

func TestConsultationService_Update_Errors(t *testing.T) {
	svc, cleanup := setupConsultationService(t)
	defer cleanup()

	ctx := context.Background()
	_, err := svc.Update(ctx, "missing", &dto.UpdateConsultationRequest{Status: model.ConsultationCompleted})
	assert.ErrorIs(t, err, ErrConsultationNotFound)

	c, err := svc.Create(ctx, &dto.CreateConsultationRequest{
		Name:             "赵六",
		Phone:            "13600136000",
		ConsultationType: model.ConsultationOther,
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, c.ID, &dto.UpdateConsultationRequest{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidConsultStatus)
}
