package services

import (
	"github.com/franciscosanchezn/pizza-storefront/internal/auth"
	"github.com/franciscosanchezn/pizza-storefront/internal/client"
	"github.com/sirupsen/logrus"
)

// Storefront bundles the services of one storefront instance
type Storefront struct {
	Session   SessionService
	Menu      MenuService
	Cart      CartService
	Selection SelectionService
	Orders    OrderService
	Inbox     *Inbox
}

// NewStorefront wires every service against backend.
// Notifications go to the returned Inbox and to the log.
func NewStorefront(backend client.Backend, tokens *auth.TokenHolder, inboxLimit int, logger *logrus.Logger) *Storefront {
	inbox := NewInbox(inboxLimit)
	notifier := MultiNotifier{inbox, NewLogNotifier(logger)}

	session := NewSessionService(backend, tokens, logger)
	menu := NewMenuService(backend, logger)
	cart := NewCartService(backend, session, notifier, logger)
	return &Storefront{
		Session:   session,
		Menu:      menu,
		Cart:      cart,
		Selection: NewSelectionService(backend, menu, cart, logger),
		Orders:    NewOrderService(backend, session, cart, notifier, logger),
		Inbox:     inbox,
	}
}
