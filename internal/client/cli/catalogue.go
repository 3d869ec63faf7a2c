package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/services"
)

func (a *App) Products(ctx context.Context, _ []string) error {
	products, err := a.svc.Products.List(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		a.println("No products yet. Use 'addproduct' to create one.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKU\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.SKU, p.Name, p.Category, p.PriceUSD.StringFixed(2), p.Stock)
	}
	return tw.Flush()
}

func (a *App) AddProduct(ctx context.Context, _ []string) error {
	var in services.ProductInput
	var err error

	for _, p := range []struct {
		label string
		dst   *string
	}{
		{"SKU:", &in.SKU},
		{"Name:", &in.Name},
		{"Category:", &in.Category},
	} {
		if *p.dst, err = GetSimpleText(a.reader, p.label, a.out); err != nil {
			return err
		}
	}

	if in.PriceUSD, err = a.promptAmount("Price (USD):"); err != nil {
		return err
	}

	raw, err := GetSimpleText(a.reader, "Stock:", a.out)
	if err != nil {
		return err
	}
	if in.Stock, err = parseCount(raw, 0); err != nil {
		return err
	}

	p, err := a.svc.Products.Create(ctx, in)
	if err != nil {
		return err
	}
	a.printf("Product %s added (%s).\n", p.Name, p.ID)
	return nil
}

// resolveProduct accepts a product id or name.
func (a *App) resolveProduct(ctx context.Context, ref string) (*models.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: product is required", common.ErrorValidation)
	}
	p, err := a.svc.Products.Get(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	return a.svc.Products.FindByName(ctx, ref)
}

func (a *App) printProduct(p *models.Product) {
	a.printf("ID:       %s\n", p.ID)
	a.printf("SKU:      %s\n", p.SKU)
	a.printf("Name:     %s\n", p.Name)
	a.printf("Category: %s\n", p.Category)
	a.printf("Price:    $%s\n", p.PriceUSD.StringFixed(2))
	a.printf("Stock:    %d\n", p.Stock)
}

func (a *App) Product(ctx context.Context, args []string) error {
	ref, err := a.argOrPrompt(args, 0, "Product (id or name):")
	if err != nil {
		return err
	}
	p, err := a.resolveProduct(ctx, ref)
	if err != nil {
		return err
	}
	a.printProduct(p)
	return nil
}

// EditProduct prompts for every field; a blank answer keeps the current value.
func (a *App) EditProduct(ctx context.Context, args []string) error {
	ref, err := a.argOrPrompt(args, 0, "Product (id or name):")
	if err != nil {
		return err
	}
	p, err := a.resolveProduct(ctx, ref)
	if err != nil {
		return err
	}

	in := services.ProductInput{SKU: p.SKU, Name: p.Name, Category: p.Category, PriceUSD: p.PriceUSD, Stock: p.Stock}
	for _, f := range []struct {
		label string
		dst   *string
	}{
		{"SKU", &in.SKU},
		{"Name", &in.Name},
		{"Category", &in.Category},
	} {
		v, err := GetSimpleText(a.reader, fmt.Sprintf("%s [%s]:", f.label, *f.dst), a.out)
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = v
		}
	}

	raw, err := GetSimpleText(a.reader, fmt.Sprintf("Price (USD) [%s]:", p.PriceUSD.StringFixed(2)), a.out)
	if err != nil {
		return err
	}
	if raw != "" {
		if in.PriceUSD, err = services.ParseAmount(raw); err != nil {
			return err
		}
	}

	raw, err = GetSimpleText(a.reader, fmt.Sprintf("Stock [%d]:", p.Stock), a.out)
	if err != nil {
		return err
	}
	if in.Stock, err = parseCount(raw, p.Stock); err != nil {
		return err
	}

	updated, err := a.svc.Products.Update(ctx, p.ID, in)
	if err != nil {
		return err
	}
	a.printf("Product %s updated.\n", updated.Name)
	return nil
}

// Stock sets the level ("stock Tea 12") or moves it ("stock Tea +3", "stock Tea -2").
func (a *App) Stock(ctx context.Context, args []string) error {
	ref, err := a.argOrPrompt(args, 0, "Product (id or name):")
	if err != nil {
		return err
	}
	change, err := a.argOrPrompt(args, 1, "New stock, or +n / -n to adjust:")
	if err != nil {
		return err
	}

	p, err := a.resolveProduct(ctx, ref)
	if err != nil {
		return err
	}

	if strings.HasPrefix(change, "+") || strings.HasPrefix(change, "-") {
		delta, err := parseCount(change, 0)
		if err != nil {
			return err
		}
		if p, err = a.svc.Products.AdjustStock(ctx, p.ID, delta); err != nil {
			return err
		}
	} else {
		stock, err := parseCount(change, p.Stock)
		if err != nil {
			return err
		}
		if err := a.svc.Products.SetStock(ctx, p.ID, stock); err != nil {
			return err
		}
		p.Stock = stock
	}

	a.printf("%s in stock: %d\n", p.Name, p.Stock)
	return nil
}

func (a *App) DeleteProduct(ctx context.Context, args []string) error {
	ref, err := a.argOrPrompt(args, 0, "Product (id or name):")
	if err != nil {
		return err
	}
	p, err := a.resolveProduct(ctx, ref)
	if err != nil {
		return err
	}
	if err := a.svc.Products.Delete(ctx, p.ID); err != nil {
		return err
	}
	a.printf("Product %s deleted.\n", p.Name)
	return nil
}

// Buy takes the product by id or name, then the quantity (default 1).
func (a *App) Buy(ctx context.Context, args []string) error {
	product, err := a.argOrPrompt(args, 0, "Product (id or name):")
	if err != nil {
		return err
	}

	quantity := 1
	if len(args) > 1 {
		if quantity, err = parseCount(args[1], 1); err != nil {
			return err
		}
	}

	r, err := a.svc.Wallet.BuyItem(ctx, a.session.UserID, product, quantity, "")
	if err != nil {
		return err
	}
	a.printf("Bought %d x %s for $%s. New balance: $%s\n",
		quantity, r.Transaction.Item, r.Transaction.Cost.StringFixed(2), r.Balance.StringFixed(2))
	if r.Product != nil {
		a.printf("%s in stock: %d\n", r.Product.Name, r.Product.Stock)
	}
	return nil
}

func parseCount(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", common.ErrorValidation, raw)
	}
	return n, nil
}
