// Package access decides what a user may do within a tenant. The closed
// variant set {owner, membership(role, capability)} is resolved into a Grant
// once per request and checked through pure predicates; nothing here is
// cached across requests, since membership can change between them.
package access

import (
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/membership"
	"github.com/opdesk-io/opdesk/pkg/serrors"
)

var (
	ErrForbidden = serrors.NewError("FORBIDDEN", "insufficient permissions", "")
)

// Grant is the authorization evidence for one (tenant, user) pair at one
// point in time.
type Grant struct {
	IsOwner       bool
	HasMembership bool
	Role          membership.Role
	CanRespond    bool
}

// Owner returns the grant that satisfies every check unconditionally.
func Owner() Grant {
	return Grant{IsOwner: true}
}

// Member returns the grant derived from a membership row.
func Member(m *membership.Membership) Grant {
	return Grant{
		HasMembership: true,
		Role:          m.Role(),
		CanRespond:    m.CanRespondToClients(),
	}
}

// None is the empty grant: no owner flag, no membership.
func None() Grant {
	return Grant{}
}

// CanView: owner or any membership.
func CanView(g Grant) bool {
	return g.IsOwner || g.HasMembership
}

// CanOperate: owner or a membership allowed to respond to clients. Note the
// admin role alone does not imply this; the capability flag does.
func CanOperate(g Grant) bool {
	return g.IsOwner || (g.HasMembership && g.CanRespond)
}

// CanManage: owner or admin-role membership.
func CanManage(g Grant) bool {
	return g.IsOwner || (g.HasMembership && g.Role == membership.RoleAdmin)
}
