package features

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/franciscosanchezn/pizza-storefront/internal/auth"
	"github.com/franciscosanchezn/pizza-storefront/internal/client"
	"github.com/franciscosanchezn/pizza-storefront/internal/fakebackend"
	"github.com/franciscosanchezn/pizza-storefront/internal/models"
	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// connectionDropper closes the connection of the nth POST /orders instead of answering it
type connectionDropper struct {
	next   http.Handler
	mu     sync.Mutex
	dropAt int
	seen   int
}

func (d *connectionDropper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost && r.URL.Path == "/orders" {
		d.mu.Lock()
		d.seen++
		drop := d.dropAt > 0 && d.seen == d.dropAt
		d.mu.Unlock()
		if hj, ok := w.(http.Hijacker); drop && ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
				return
			}
		}
	}
	d.next.ServeHTTP(w, r)
}

type storefrontTestContext struct {
	fake    *fakebackend.Server
	server  *httptest.Server
	dropper *connectionDropper
	tokens  *auth.TokenHolder
	sf      *services.Storefront
	orderID string
	err     error
}

func (c *storefrontTestContext) reset() {
	c.close()
	c.fake, c.server, c.dropper, c.tokens, c.sf = nil, nil, nil, nil, nil
	c.orderID = ""
	c.err = nil
}

func (c *storefrontTestContext) close() {
	if c.server != nil {
		c.server.Close()
	}
	if c.fake != nil {
		_ = c.fake.Close()
	}
}

func (c *storefrontTestContext) aBackendWithTheUser(email, password string) error {
	fake, err := fakebackend.New()
	if err != nil {
		return err
	}
	c.fake = fake
	if _, err := fake.CreateUser(context.Background(), "alice", email, password); err != nil {
		return err
	}
	c.dropper = &connectionDropper{next: fake.Handler()}
	c.server = httptest.NewServer(c.dropper)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	c.tokens, err = auth.NewTokenHolder(context.Background(), auth.NewMemoryTokenStore(""), logger)
	if err != nil {
		return err
	}
	backend := client.NewBackend(c.server.URL, c.tokens, client.WithTimeout(5*time.Second), client.WithLogger(logger))
	c.sf = services.NewStorefront(backend, c.tokens, 20, logger)
	return nil
}

func (c *storefrontTestContext) iLogInAs(email, password string) error {
	_, c.err = c.sf.Session.Login(context.Background(), email, password)
	return nil
}

func (c *storefrontTestContext) iAmLoggedIn() error {
	_, err := c.sf.Session.Login(context.Background(), "alice@example.com", "secret123")
	return err
}

func (c *storefrontTestContext) theSessionIs(state string) error {
	if got := c.sf.Session.State().String(); got != state {
		return fmt.Errorf("expected session %q, got %q (last error: %v)", state, got, c.sf.Session.LastError())
	}
	return nil
}

func (c *storefrontTestContext) theCartCanBeLoadedWithTheIssuedToken() error {
	if c.tokens.Token() == "" {
		return errors.New("no token was stored")
	}
	if err := c.sf.Cart.Reload(context.Background()); err != nil {
		return fmt.Errorf("cart reload failed: %w", err)
	}
	if c.fake.Calls(http.MethodGet, "/cart") == 0 {
		return errors.New("the cart was never requested")
	}
	return nil
}

func (c *storefrontTestContext) iRegisterWithPhoneAndAddress(phone, address string) error {
	_, c.err = c.sf.Session.Register(context.Background(), models.RegisterRequest{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Phone:           phone,
		Address:         address,
	})
	return nil
}

func (c *storefrontTestContext) theErrorIsAValidationErrorOn(field string) error {
	var vErr *models.ValidationError
	if !errors.As(c.err, &vErr) {
		return fmt.Errorf("expected a validation error, got %v", c.err)
	}
	if vErr.Field != field {
		return fmt.Errorf("expected field %q, got %q", field, vErr.Field)
	}
	return nil
}

func (c *storefrontTestContext) noRegistrationRequestWasSent() error {
	if n := c.fake.Calls(http.MethodPost, "/auth/register"); n != 0 {
		return fmt.Errorf("expected no registration request, got %d", n)
	}
	return nil
}

func parseIDs(list string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(list, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *storefrontTestContext) lookup(ids ...int) ([]models.Ingredient, error) {
	ingredients := make([]models.Ingredient, 0, len(ids))
	for _, id := range ids {
		ing, err := c.sf.Menu.Lookup(context.Background(), id)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, nil
}

func (c *storefrontTestContext) addPizza(crust int, sauceList, toppingList string) error {
	sauceIDs, err := parseIDs(sauceList)
	if err != nil {
		return err
	}
	toppingIDs, err := parseIDs(toppingList)
	if err != nil {
		return err
	}
	crusts, err := c.lookup(crust)
	if err != nil {
		return err
	}
	sauces, err := c.lookup(sauceIDs...)
	if err != nil {
		return err
	}
	toppings, err := c.lookup(toppingIDs...)
	if err != nil {
		return err
	}
	return c.sf.Cart.AddPizza(context.Background(), crusts[0], sauces, toppings)
}

func (c *storefrontTestContext) iAddAPizza(crust int, sauces, toppings string) error {
	c.err = c.addPizza(crust, sauces, toppings)
	return nil
}

func (c *storefrontTestContext) myCartHoldsAPizza(crust int, sauces, toppings string) error {
	return c.addPizza(crust, sauces, toppings)
}

func (c *storefrontTestContext) theCartHoldsExactly(crust int, sauceList, toppingList string, quantity int) error {
	if c.err != nil {
		return fmt.Errorf("adding the pizza failed: %w", c.err)
	}
	if err := c.sf.Cart.Reload(context.Background()); err != nil {
		return err
	}
	items := c.sf.Cart.Items()
	if len(items) != 1 {
		return fmt.Errorf("expected one cart line, got %d", len(items))
	}
	sauces, _ := parseIDs(sauceList)
	toppings, _ := parseIDs(toppingList)
	want := append(append([]int{crust}, sauces...), toppings...)
	if got := items[0].IngredientIDs(); !slices.Equal(got, want) {
		return fmt.Errorf("expected ingredients %v, got %v", want, got)
	}
	if items[0].Quantity != quantity {
		return fmt.Errorf("expected quantity %d, got %d", quantity, items[0].Quantity)
	}
	return nil
}

func (c *storefrontTestContext) aLoginIsRequired() error {
	if !errors.Is(c.err, models.ErrLoginRequired) {
		return fmt.Errorf("expected login required, got %v", c.err)
	}
	if !c.sf.Cart.LoginPromptVisible() {
		return errors.New("the login prompt is not raised")
	}
	return c.aNotificationMentions(string(services.NotifyLoginRequired), "log in")
}

func (c *storefrontTestContext) noCartRequestWasSent() error {
	if n := c.fake.Calls(http.MethodPost, "/cart"); n != 0 {
		return fmt.Errorf("expected no cart request, got %d", n)
	}
	return nil
}

func (c *storefrontTestContext) iSetTheQuantityOfThatPizzaTo(quantity int) error {
	items := c.sf.Cart.Items()
	if len(items) == 0 {
		return errors.New("the cart is empty")
	}
	c.err = c.sf.Cart.UpdateQuantity(context.Background(), items[0].ID, quantity)
	return nil
}

func (c *storefrontTestContext) theCartHoldsPizzas(count int) error {
	if got := c.sf.Cart.TotalItems(); got != count {
		return fmt.Errorf("expected %d pizzas in the cart, got %d", count, got)
	}
	return nil
}

func (c *storefrontTestContext) theCartIsEmpty() error {
	if items := c.sf.Cart.Items(); len(items) != 0 {
		return fmt.Errorf("expected an empty cart, got %d lines", len(items))
	}
	return nil
}

func (c *storefrontTestContext) iClearTheCart() error {
	if err := c.sf.Cart.ClearCart(context.Background()); err != nil {
		c.err = err
	}
	return nil
}

func (c *storefrontTestContext) noErrorWasReturned() error {
	return c.err
}

func (c *storefrontTestContext) theBackendDropsOrderRequest(n int) error {
	c.dropper.mu.Lock()
	defer c.dropper.mu.Unlock()
	c.dropper.dropAt = n
	return nil
}

func (c *storefrontTestContext) iCheckOut() error {
	c.orderID, c.err = c.sf.Orders.Checkout(context.Background())
	return nil
}

func (c *storefrontTestContext) atLeastOrderRowsShareTheOrderID(min int) error {
	rows, err := c.fake.OrderRows(context.Background(), c.orderID)
	if err != nil {
		return err
	}
	if int(rows) < min {
		return fmt.Errorf("expected at least %d rows for %s, got %d", min, c.orderID, rows)
	}
	if calls := c.fake.Calls(http.MethodPost, "/orders"); int64(calls) != rows {
		return fmt.Errorf("%d order requests but %d rows for %s", calls, rows, c.orderID)
	}
	return nil
}

func (c *storefrontTestContext) aNotificationMentions(kind, text string) error {
	for _, n := range c.sf.Inbox.Drain() {
		if string(n.Kind) == kind && strings.Contains(n.Message, text) {
			return nil
		}
	}
	return fmt.Errorf("no %s notification mentions %q", kind, text)
}

func (c *storefrontTestContext) theCheckoutFailedAfterOrderRows(created int) error {
	var partial *models.PartialCheckoutFailure
	if !errors.As(c.err, &partial) {
		return fmt.Errorf("expected a partial checkout failure, got %v", c.err)
	}
	var netErr *models.NetworkError
	if !errors.As(c.err, &netErr) {
		return fmt.Errorf("expected the failure to be a network error, got %v", partial.Err)
	}
	if partial.Created != created {
		return fmt.Errorf("expected %d rows before the failure, got %d", created, partial.Created)
	}
	return nil
}

func (c *storefrontTestContext) theCartWasNotCleared() error {
	if n := c.fake.Calls(http.MethodDelete, "/cart"); n != 0 {
		return fmt.Errorf("expected no cart clear, got %d", n)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &storefrontTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.close()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a backend with the user "([^"]*)" and password "([^"]*)"$`, tc.aBackendWithTheUser)
	ctx.Step(`^I am logged in$`, tc.iAmLoggedIn)
	ctx.Step(`^my cart holds a pizza with crust (\d+), sauces "([^"]*)" and toppings "([^"]*)"$`, tc.myCartHoldsAPizza)
	ctx.Step(`^the backend drops order request (\d+)$`, tc.theBackendDropsOrderRequest)

	// When steps
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, tc.iLogInAs)
	ctx.Step(`^I register with phone "([^"]*)" and address "([^"]*)"$`, tc.iRegisterWithPhoneAndAddress)
	ctx.Step(`^I add a pizza with crust (\d+), sauces "([^"]*)" and toppings "([^"]*)"$`, tc.iAddAPizza)
	ctx.Step(`^I set the quantity of that pizza to (-?\d+)$`, tc.iSetTheQuantityOfThatPizzaTo)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
	ctx.Step(`^I check out$`, tc.iCheckOut)

	// Then steps
	ctx.Step(`^the session is "([^"]*)"$`, tc.theSessionIs)
	ctx.Step(`^the cart can be loaded with the issued token$`, tc.theCartCanBeLoadedWithTheIssuedToken)
	ctx.Step(`^the error is a validation error on "([^"]*)"$`, tc.theErrorIsAValidationErrorOn)
	ctx.Step(`^no registration request was sent$`, tc.noRegistrationRequestWasSent)
	ctx.Step(`^the cart holds crust (\d+), sauces "([^"]*)" and toppings "([^"]*)" with quantity (\d+)$`, tc.theCartHoldsExactly)
	ctx.Step(`^a login is required$`, tc.aLoginIsRequired)
	ctx.Step(`^no cart request was sent$`, tc.noCartRequestWasSent)
	ctx.Step(`^the cart holds (\d+) pizzas?$`, tc.theCartHoldsPizzas)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^no error was returned$`, tc.noErrorWasReturned)
	ctx.Step(`^at least (\d+) order rows share the order id$`, tc.atLeastOrderRowsShareTheOrderID)
	ctx.Step(`^a "([^"]*)" notification mentions "([^"]*)"$`, tc.aNotificationMentions)
	ctx.Step(`^the checkout failed after (\d+) order rows$`, tc.theCheckoutFailedAfterOrderRows)
	ctx.Step(`^the cart was not cleared$`, tc.theCartWasNotCleared)
}

func TestFeatures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fakebackend.SetLevel(logrus.PanicLevel)

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"storefront.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
