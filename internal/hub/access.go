package hub

import (
	"errors"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

var (
	// ErrUnauthenticated means the connection attempted a conversation
	// action before completing the auth handshake.
	ErrUnauthenticated = errors.New("connection not authenticated")

	// ErrAccessDenied means the bound identity is not a party to the
	// requested conversation.
	ErrAccessDenied = errors.New("access denied")
)

// Authorize decides whether an identity may act on a conversation:
// a customer only on its own conversations, a merchant only on its own
// shop's. Everything else, including unauthenticated connections and admin
// dashboards, is denied.
func Authorize(id Identity, key domain.ConversationKey) error {
	if !id.Authenticated {
		return ErrUnauthenticated
	}

	switch id.Role {
	case domain.RoleCustomer:
		if id.UserID == key.CustomerID {
			return nil
		}
	case domain.RoleMerchant:
		if id.ShopID != nil && *id.ShopID == key.ShopID {
			return nil
		}
	}

	return ErrAccessDenied
}
