package api

import (
	"github.com/shelfmark/shelfmark-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth    *service.AuthService
	Catalog *service.CatalogService
	Shelf   *service.ShelfService
	Review  *service.ReviewService
	Session *service.SessionService
}
