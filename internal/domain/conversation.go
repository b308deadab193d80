package domain

// ConversationKey identifies a chat conversation between a customer and a
// shop, optionally scoped to a single product. A product-scoped conversation
// is distinct from the shop-level conversation between the same pair, and an
// absent product id never collides with an empty-string product id.
type ConversationKey struct {
	CustomerID string
	ShopID     string
	ProductID  *string
}

// NewConversationKey builds a key. productID may be nil for the shop-level
// conversation.
func NewConversationKey(customerID, shopID string, productID *string) ConversationKey {
	return ConversationKey{
		CustomerID: customerID,
		ShopID:     shopID,
		ProductID:  productID,
	}
}

// String returns the canonical serialized form used to index sessions:
// "customer:shop" or "customer:shop:product". The product segment is only
// appended when a product id is present, so "c:s" and a key with ProductID=""
// ("c:s:") stay distinct.
func (k ConversationKey) String() string {
	s := k.CustomerID + ":" + k.ShopID
	if k.ProductID != nil {
		s += ":" + *k.ProductID
	}
	return s
}

// Equal reports whether two keys identify the same conversation.
func (k ConversationKey) Equal(other ConversationKey) bool {
	if k.CustomerID != other.CustomerID || k.ShopID != other.ShopID {
		return false
	}
	if (k.ProductID == nil) != (other.ProductID == nil) {
		return false
	}
	return k.ProductID == nil || *k.ProductID == *other.ProductID
}
