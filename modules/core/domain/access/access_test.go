package access_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/opdesk-io/opdesk/modules/core/domain/access"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/membership"
)

func member(role membership.Role, canRespond bool) access.Grant {
	return access.Member(membership.New(
		uuid.New(),
		uuid.New(),
		role,
		membership.WithCanRespondToClients(canRespond),
	))
}

func TestGrants(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		grant      access.Grant
		canView    bool
		canOperate bool
		canManage  bool
	}{
		{"owner", access.Owner(), true, true, true},
		{"admin with respond", member(membership.RoleAdmin, true), true, true, true},
		{"admin without respond", member(membership.RoleAdmin, false), true, false, true},
		{"operator with respond", member(membership.RoleOperator, true), true, true, false},
		{"operator without respond", member(membership.RoleOperator, false), true, false, false},
		{"no grant", access.None(), false, false, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.canView, access.CanView(tc.grant))
			assert.Equal(t, tc.canOperate, access.CanOperate(tc.grant))
			assert.Equal(t, tc.canManage, access.CanManage(tc.grant))
		})
	}
}
