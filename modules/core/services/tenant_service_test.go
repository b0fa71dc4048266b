package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opdesk-io/opdesk/modules/core/domain/entities/tenant"
	"github.com/opdesk-io/opdesk/modules/core/infrastructure/persistence"
	"github.com/opdesk-io/opdesk/modules/core/services"
)

func setupTenants(t *testing.T) (*services.TenantService, *tenant.Tenant, *tenant.Tenant) {
	t.Helper()
	repo := persistence.NewInMemTenantRepository()
	sut := services.NewTenantService(repo)

	acme := tenant.New("Acme", "acme",
		tenant.WithOwnerID(uuid.New()),
		tenant.WithWebhookSecret("acme-secret"),
		tenant.WithBotToken("acme-bot-token"),
	)
	globex := tenant.New("Globex", "globex",
		tenant.WithOwnerID(uuid.New()),
		tenant.WithWebhookSecret("globex-secret"),
		tenant.WithBotToken("globex-bot-token"),
	)
	ctx := context.Background()
	_, err := sut.Create(ctx, acme)
	require.NoError(t, err)
	_, err = sut.Create(ctx, globex)
	require.NoError(t, err)
	return sut, acme, globex
}

func TestResolveByKey(t *testing.T) {
	t.Parallel()
	sut, acme, globex := setupTenants(t)
	ctx := context.Background()

	got, err := sut.ResolveByKey(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, acme.ID(), got.ID())

	got, err = sut.ResolveByKey(ctx, "globex")
	require.NoError(t, err)
	assert.Equal(t, globex.ID(), got.ID())

	_, err = sut.ResolveByKey(ctx, "unknown")
	require.ErrorIs(t, err, tenant.ErrNotFound)
}

func TestVerifySecret(t *testing.T) {
	t.Parallel()
	sut, acme, globex := setupTenants(t)

	require.NoError(t, sut.VerifySecret(acme, "acme-secret"))
	require.ErrorIs(t, sut.VerifySecret(acme, "wrong"), services.ErrBadWebhookSecret)
	require.ErrorIs(t, sut.VerifySecret(acme, ""), services.ErrBadWebhookSecret)
	// One tenant's secret opens no other tenant's door.
	require.ErrorIs(t, sut.VerifySecret(acme, "globex-secret"), services.ErrBadWebhookSecret)
	require.NoError(t, sut.VerifySecret(globex, "globex-secret"))
}

func TestVerifySecret_EachTenantKeepsItsOwnCredentials(t *testing.T) {
	t.Parallel()
	_, acme, globex := setupTenants(t)

	assert.NotEqual(t, acme.BotToken(), globex.BotToken())
	assert.NotEqual(t, acme.WebhookSecret(), globex.WebhookSecret())
}
