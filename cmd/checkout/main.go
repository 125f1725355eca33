// Command checkout is a terminal storefront client: it manages the cart and
// saved addresses and places orders against the storefront API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/payment"
	"github.com/xenking/kart-storefront/internal/gateway"
	"github.com/xenking/kart-storefront/internal/restclient"
	"github.com/xenking/kart-storefront/internal/storefront"
)

const usage = `usage: checkout <command> [args]

commands:
  login <token>               store a bearer token
  logout                      forget the stored token
  products                    list the catalog
  cart                        show the cart with its price breakdown
  add <product> [-size S] [-qty N]
  set <product> <qty> [-size S]
  remove <product> [-size S]
  clear                       empty the cart
  addresses                   list saved addresses
  address-add [flags]         save a new address
  address-rm <id>             delete a saved address
  pay cod|online [-address ID]
  orders [id]                 list orders or show one
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1], os.Args[2:], os.Stdout)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type cli struct {
	cfg    *Config
	client *storefront.Client
	api    *restclient.Client
	store  storefront.FileTokenStore
	lg     *zap.Logger
	out    io.Writer
}

func run(ctx context.Context, cmd string, args []string, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := zapcore.WarnLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	lg, err := zcfg.Build()
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	defer func() { _ = lg.Sync() }()

	api, err := restclient.New(restclient.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.Timeout,
		Logger:  lg.Named("api"),
	})
	if err != nil {
		return err
	}
	store := storefront.FileTokenStore{Path: cfg.TokenFile}
	auth := storefront.NewAuthContext(
		store,
		func(string) {
			fmt.Fprintln(os.Stderr, "Session expired. Run `checkout login <token>` to sign in again.")
		},
		lg.Named("auth"),
	)
	c := &cli{
		cfg: cfg,
		client: storefront.New(api, auth, storefront.Options{
			Currency: cfg.Currency,
			Logger:   lg,
		}),
		api:   api,
		store: store,
		lg:    lg,
		out:   out,
	}

	switch cmd {
	case "login":
		return c.login(args)
	case "logout":
		if err := c.store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Signed out.")
		return nil
	case "products":
		return c.products(ctx)
	case "cart":
		return c.showCart(ctx)
	case "add":
		return c.add(ctx, args)
	case "set":
		return c.set(ctx, args)
	case "remove":
		return c.remove(ctx, args)
	case "clear":
		if err := c.client.Cart.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Cart cleared.")
		return nil
	case "addresses":
		return c.addresses(ctx)
	case "address-add":
		return c.addressAdd(ctx, args)
	case "address-rm":
		return c.addressRemove(ctx, args)
	case "pay":
		return c.pay(ctx, args)
	case "orders":
		return c.orders(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return errors.Errorf("unknown command %q", cmd)
	}
}

func (c *cli) login(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: checkout login <token>")
	}
	if err := c.client.Auth.SignIn(args[0]); err != nil {
		return err
	}
	if _, err := c.client.Auth.Token(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed in.")
	return nil
}

func (c *cli) products(ctx context.Context) error {
	list, err := c.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tMRP\tSIZES\tSTOCK")
	for _, p := range list {
		mrp := "-"
		if p.MRP != nil {
			mrp = p.MRP.StringFixed(2)
		}
		sizes := "-"
		if len(p.Sizes) > 0 {
			sizes = strings.Join(p.Sizes, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Price.StringFixed(2), mrp, sizes, p.Stock)
	}
	return tw.Flush()
}

// lineFlags parses the product argument and the -size/-qty flags in any
// order.
func lineFlags(name string, args []string, positional int) (cart.Key, int, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	size := fs.String("size", "", "size variant")
	qty := fs.Int("qty", 1, "quantity")

	var rest []string
	for len(args) > 0 {
		if err := fs.Parse(args); err != nil {
			return cart.Key{}, 0, nil, err
		}
		args = fs.Args()
		if len(args) > 0 {
			rest = append(rest, args[0])
			args = args[1:]
		}
	}
	if len(rest) != positional {
		return cart.Key{}, 0, nil, errors.Errorf("%s: expected %d argument(s), got %d", name, positional, len(rest))
	}
	return cart.Key{ProductID: rest[0], Size: *size}, *qty, rest[1:], nil
}

func (c *cli) add(ctx context.Context, args []string) error {
	k, qty, _, err := lineFlags("add", args, 1)
	if err != nil {
		return err
	}
	if err := c.client.Cart.Add(ctx, k, qty); err != nil {
		return err
	}
	return c.printCart()
}

func (c *cli) set(ctx context.Context, args []string) error {
	k, _, rest, err := lineFlags("set", args, 2)
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(rest[0])
	if err != nil {
		return errors.Wrap(err, "parse quantity")
	}
	if err := c.client.Cart.Load(ctx); err != nil {
		return err
	}
	if err := c.client.Cart.UpdateQuantity(ctx, k, qty); err != nil {
		return err
	}
	return c.printCart()
}

func (c *cli) remove(ctx context.Context, args []string) error {
	k, _, _, err := lineFlags("remove", args, 1)
	if err != nil {
		return err
	}
	if err := c.client.Cart.Remove(ctx, k); err != nil {
		return err
	}
	return c.printCart()
}

func (c *cli) showCart(ctx context.Context) error {
	if err := c.client.SyncPricing(ctx); err != nil {
		c.lg.Debug("Pricing sync failed", zap.Error(err))
	}
	if err := c.client.Cart.Load(ctx); err != nil {
		return err
	}
	return c.printCart()
}

func (c *cli) printCart() error {
	snap := c.client.Cart.Snapshot()
	if snap.IsEmpty() {
		fmt.Fprintln(c.out, "Your cart is empty.")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tSIZE\tQTY\tPRICE\tTOTAL")
	for _, it := range snap.Items {
		size := it.Size
		if size == "" {
			size = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", it.Name, size, it.Quantity, it.UnitPrice.StringFixed(2), it.LineTotal().StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	b := c.client.Breakdown()
	fmt.Fprintf(c.out, "\nItems:    %d\n", b.ItemCount)
	fmt.Fprintf(c.out, "Subtotal: %s\n", b.Subtotal.StringFixed(2))
	if b.FreeShipping() {
		fmt.Fprintln(c.out, "Shipping: FREE")
	} else {
		fmt.Fprintf(c.out, "Shipping: %s (add %s more for free shipping)\n",
			b.Shipping.StringFixed(2), b.AmountToFreeShipping().StringFixed(2))
	}
	fmt.Fprintf(c.out, "Tax:      %s\n", b.Tax.StringFixed(2))
	fmt.Fprintf(c.out, "Total:    %s\n", b.Total.StringFixed(2))
	return nil
}

func (c *cli) addresses(ctx context.Context) error {
	list, err := c.client.Addresses.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(c.out, "No saved addresses.")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tADDRESS\tPINCODE")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.FullName, a.Type, oneLine(a.Fields), a.Pincode)
	}
	return tw.Flush()
}

func oneLine(f address.Fields) string {
	parts := []string{f.AddressLine1}
	if f.AddressLine2 != "" {
		parts = append(parts, f.AddressLine2)
	}
	parts = append(parts, f.Locality, f.City, f.State)
	return strings.Join(parts, ", ")
}

func (c *cli) addressAdd(ctx context.Context, args []string) error {
	var f address.Fields
	var typ string
	fs := flag.NewFlagSet("address-add", flag.ContinueOnError)
	fs.StringVar(&f.FullName, "name", "", "full name")
	fs.StringVar(&f.MobileNumber, "mobile", "", "10 digit mobile number")
	fs.StringVar(&f.Pincode, "pincode", "", "6 digit pincode")
	fs.StringVar(&f.Locality, "locality", "", "locality")
	fs.StringVar(&f.AddressLine1, "line1", "", "address line 1")
	fs.StringVar(&f.AddressLine2, "line2", "", "address line 2")
	fs.StringVar(&f.City, "city", "", "city")
	fs.StringVar(&f.State, "state", "", "state")
	fs.StringVar(&f.Landmark, "landmark", "", "landmark")
	fs.StringVar(&f.AlternatePhone, "alt-phone", "", "alternate phone")
	fs.StringVar(&typ, "type", string(address.TypeHome), "Home or Work")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f.Type = address.Type(typ)

	a, err := c.client.Addresses.Create(ctx, f)
	if err != nil {
		var verr *address.ValidationError
		if errors.As(err, &verr) {
			for _, m := range verr.Messages() {
				fmt.Fprintln(c.out, " -", m)
			}
		}
		return err
	}
	fmt.Fprintf(c.out, "Saved address %s.\n", a.ID)
	return nil
}

func (c *cli) addressRemove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: checkout address-rm <id>")
	}
	if _, err := c.client.Addresses.List(ctx); err != nil {
		return err
	}
	if _, err := c.client.Addresses.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Address deleted.")
	return nil
}

func (c *cli) pay(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: checkout pay cod|online [-address ID]")
	}
	kind := args[0]
	fs := flag.NewFlagSet("pay", flag.ContinueOnError)
	addressID := fs.String("address", "", "saved address to deliver to (default: newest)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if err := c.client.SyncPricing(ctx); err != nil {
		return err
	}
	if err := c.client.Checkout.Prepare(ctx); err != nil {
		return err
	}
	if *addressID != "" {
		if err := c.client.Addresses.Select(*addressID); err != nil {
			return err
		}
	}

	var method storefront.Method
	switch kind {
	case "cod":
		method = storefront.COD{}
	case "online":
		addr, _ := c.client.Addresses.Selected()
		method = storefront.Online{
			Widget: c.widget(),
			Prefill: storefront.Prefill{
				Name:    addr.FullName,
				Contact: addr.MobileNumber,
			},
		}
	default:
		return errors.Errorf("unknown payment method %q", kind)
	}

	attempt, err := c.client.Checkout.Begin(method)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Paying %s for %d item(s), delivering to %s.\n",
		attempt.Breakdown.Total.StringFixed(2), attempt.Breakdown.ItemCount, attempt.Address.FullName)

	o, err := attempt.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Order %s placed: %s, %s, total %s.\n", o.ID, o.Method, o.Status, o.Amount.StringFixed(2))
	return nil
}

func (c *cli) widget() storefront.Widget {
	if c.cfg.Sandbox.Enabled() {
		return &gateway.Sandbox{Signer: payment.NewSigner(c.cfg.Sandbox.KeyID, c.cfg.Sandbox.Secret)}
	}
	return &gateway.Prompt{In: os.Stdin, Out: c.out}
}

func (c *cli) orders(ctx context.Context, args []string) error {
	if len(args) == 1 {
		o, err := c.client.Orders.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return c.printOrder(o)
	}
	list, err := c.client.Orders.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(c.out, "No orders yet.")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLACED\tMETHOD\tSTATUS\tAMOUNT")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.CreatedAt.Local().Format("2006-01-02 15:04"), o.Method, o.Status, o.Amount.StringFixed(2))
	}
	return tw.Flush()
}

func (c *cli) printOrder(o *order.Order) error {
	fmt.Fprintf(c.out, "Order %s (%s, %s)\n", o.ID, o.Method, o.Status)
	if o.PaymentRef != "" {
		fmt.Fprintf(c.out, "Payment: %s\n", o.PaymentRef)
	}
	fmt.Fprintf(c.out, "Deliver to: %s, %s %s\n\n", o.ShippingAddress.FullName, oneLine(o.ShippingAddress), o.ShippingAddress.Pincode)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tSIZE\tQTY\tPRICE")
	for _, it := range o.Items {
		size := it.Size
		if size == "" {
			size = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.Name, size, it.Quantity, it.UnitPrice.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nSubtotal %s  Shipping %s  Tax %s  Total %s\n",
		o.Subtotal.StringFixed(2), o.Shipping.StringFixed(2), o.Tax.StringFixed(2), o.Amount.StringFixed(2))
	return nil
}
