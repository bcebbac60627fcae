package browse

import (
	"context"
	"errors"
	"fmt"

	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ErrSourceUnavailable is returned when the catalog answered with a degraded,
// empty page. Treating it as an error keeps the page retryable.
var ErrSourceUnavailable = errors.New("browse: catalog unavailable")

// ErrUnknownKind is returned for a QueryKey kind the source cannot serve
var ErrUnknownKind = errors.New("browse: unknown query kind")

// GatewaySource serves pages from an in-process catalog gateway
type GatewaySource struct {
	gateway *appcatalog.Gateway
}

// NewGatewaySource creates a PageSource backed by gateway
func NewGatewaySource(gateway *appcatalog.Gateway) *GatewaySource {
	return &GatewaySource{gateway: gateway}
}

// FetchPage implements PageSource
func (s *GatewaySource) FetchPage(ctx context.Context, key QueryKey, page, pageSize int) ([]catalog.Product, error) {
	switch key.Kind {
	case KindAll, KindCategory:
		filter := appcatalog.ProductFilter{Page: page, PerPage: pageSize}
		if key.Kind == KindCategory {
			filter.Category = key.Value
		}
		list := s.gateway.ListProducts(ctx, filter)
		if list.Degraded {
			return nil, ErrSourceUnavailable
		}
		return list.Items, nil
	case KindSearch:
		res, err := s.gateway.Search(ctx, key.Value, page, pageSize)
		if err != nil {
			return nil, err
		}
		if res.Degraded {
			return nil, ErrSourceUnavailable
		}
		return res.Products, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, key.Kind)
	}
}

var _ PageSource = (*GatewaySource)(nil)
