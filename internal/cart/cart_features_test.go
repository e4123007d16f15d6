package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

type cartTestContext struct {
	cart *Cart
	err  error
}

func (c *cartTestContext) reset() {
	c.cart = New()
	c.err = nil
}

func (c *cartTestContext) anEmptyCart() error {
	c.reset()
	return nil
}

func (c *cartTestContext) iAdd(qty int, name, size, amount string) error {
	p, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	c.err = c.cart.AddItem(Item{ProductID: "tee", Name: name, Size: size, Price: p, Quantity: qty})
	return nil
}

func (c *cartTestContext) theCartHolds(qty int, name, size, amount string) error {
	if err := c.iAdd(qty, name, size, amount); err != nil {
		return err
	}
	return c.err
}

func (c *cartTestContext) iRemove(id string) error {
	c.err = c.cart.RemoveItem(id)
	return nil
}

func (c *cartTestContext) iSetTheQuantity(id string, qty int) error {
	c.err = c.cart.UpdateQuantity(id, qty)
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if c.cart.Len() != n {
		return fmt.Errorf("expected %d lines, got %d", n, c.cart.Len())
	}
	return nil
}

func (c *cartTestContext) theLineHasQuantity(id string, qty int) error {
	it, ok := c.cart.Get(id)
	if !ok {
		return fmt.Errorf("line %q not in cart", id)
	}
	if it.Quantity != qty {
		return fmt.Errorf("expected quantity %d, got %d", qty, it.Quantity)
	}
	return nil
}

func (c *cartTestContext) theCartTotalIs(amount string) error {
	want, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	if !c.cart.Total().Equal(want) {
		return fmt.Errorf("expected total %s, got %s", want, c.cart.Total())
	}
	return nil
}

func (c *cartTestContext) theOperationFailsWith(msg string) error {
	if c.err == nil {
		return errors.New("expected operation to fail but it succeeded")
	}
	if !strings.Contains(c.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, c.err.Error())
	}
	return nil
}

func initializeCartScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^the cart holds (\d+) of "([^"]*)" size "([^"]*)" at ([\d.]+)$`, tc.theCartHolds)

	ctx.Step(`^I add (\d+) of "([^"]*)" size "([^"]*)" at ([\d.]+)$`, tc.iAdd)
	ctx.Step(`^I remove "([^"]*)"$`, tc.iRemove)
	ctx.Step(`^I set the quantity of "([^"]*)" to (-?\d+)$`, tc.iSetTheQuantity)

	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the line "([^"]*)" has quantity (\d+)$`, tc.theLineHasQuantity)
	ctx.Step(`^the cart total is ([\d.]+)$`, tc.theCartTotalIs)
	ctx.Step(`^the operation fails with "([^"]*)"$`, tc.theOperationFailsWith)
}

func TestCartFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeCartScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
