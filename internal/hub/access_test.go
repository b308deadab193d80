package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

func TestAuthorize(t *testing.T) {
	key := domain.NewConversationKey("cust-1", "shop-1", nil)

	tests := []struct {
		name string
		id   Identity
		want error
	}{
		{
			name: "unauthenticated",
			id:   Identity{},
			want: ErrUnauthenticated,
		},
		{
			name: "customer on own conversation",
			id:   Identity{UserID: "cust-1", Role: domain.RoleCustomer, Authenticated: true},
			want: nil,
		},
		{
			name: "customer on another customer's conversation",
			id:   Identity{UserID: "cust-2", Role: domain.RoleCustomer, Authenticated: true},
			want: ErrAccessDenied,
		},
		{
			name: "merchant of the shop",
			id:   Identity{UserID: "merch-1", Role: domain.RoleMerchant, ShopID: strPtr("shop-1"), Authenticated: true},
			want: nil,
		},
		{
			name: "merchant of another shop",
			id:   Identity{UserID: "merch-2", Role: domain.RoleMerchant, ShopID: strPtr("shop-2"), Authenticated: true},
			want: ErrAccessDenied,
		},
		{
			name: "merchant without shop binding",
			id:   Identity{UserID: "merch-3", Role: domain.RoleMerchant, Authenticated: true},
			want: ErrAccessDenied,
		},
		{
			name: "merchant whose user id matches the customer",
			id:   Identity{UserID: "cust-1", Role: domain.RoleMerchant, ShopID: strPtr("shop-2"), Authenticated: true},
			want: ErrAccessDenied,
		},
		{
			name: "admin",
			id:   Identity{UserID: "admin-1", Role: domain.RoleAdmin, Authenticated: true},
			want: ErrAccessDenied,
		},
		{
			name: "unknown role",
			id:   Identity{UserID: "cust-1", Role: domain.Role("support"), Authenticated: true},
			want: ErrAccessDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.id, key)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestAuthorizeProductScopedKey(t *testing.T) {
	// Product scoping narrows the session, not the access rule.
	key := domain.NewConversationKey("cust-1", "shop-1", strPtr("prod-9"))

	customer := Identity{UserID: "cust-1", Role: domain.RoleCustomer, Authenticated: true}
	assert.NoError(t, Authorize(customer, key))

	merchant := Identity{UserID: "merch-1", Role: domain.RoleMerchant, ShopID: strPtr("shop-1"), Authenticated: true}
	assert.NoError(t, Authorize(merchant, key))
}
