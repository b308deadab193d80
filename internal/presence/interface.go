package presence

import (
	"context"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

// Store tracks which users currently hold a live connection. It is a
// best-effort view for dashboards; the hub remains the authority for
// delivery decisions.
type Store interface {
	Connect(ctx context.Context, userID string, role domain.Role, shopID *string) error
	Disconnect(ctx context.Context, userID string, role domain.Role, shopID *string) error
	OnlineForShop(ctx context.Context, shopID string) ([]string, error)
	Close() error
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Connect(context.Context, string, domain.Role, *string) error    { return nil }
func (Noop) Disconnect(context.Context, string, domain.Role, *string) error { return nil }
func (Noop) OnlineForShop(context.Context, string) ([]string, error)        { return nil, nil }
func (Noop) Close() error                                                   { return nil }
