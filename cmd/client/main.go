package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/client/api"
	"github.com/atinyakov/GophMall/internal/client/app"
	"github.com/atinyakov/GophMall/internal/client/cart"
	"github.com/atinyakov/GophMall/internal/client/merchant"
	"github.com/atinyakov/GophMall/internal/config"
	"github.com/atinyakov/GophMall/internal/logger"
)

var (
	version   string
	buildDate string
)

const helpText = `Available commands:
  login [user] [password]        sign in
  register [user] [password]     create an account and sign in
  logout                         sign out
  whoami                         show the signed-in user
  home                           show the home feed
  products [keyword]             list products
  product <id>                   show one product
  cart                           show the cart
  add <id> [qty]                 add a product to the cart
  qty <id> <n>                   set a cart line's quantity (0 removes)
  rm <id>                        remove a cart line
  toggle <id>                    select or unselect a cart line
  select-all on|off              select or unselect every line
  clear                          empty the cart
  checkout <addressId>           order the selected lines
  orders                         list your orders
  merchants                      list the merchants you manage
  use <merchantId>               switch the current merchant
  scope [mall|merchant]          show or set the workspace scope
  help, exit`

// console prints cart notices and navigation.
type console struct {
	out io.Writer
}

func (c console) Notify(level cart.Level, message string) {
	tag := "info"
	switch level {
	case cart.LevelSuccess:
		tag = "ok"
	case cart.LevelError:
		tag = "error"
	}
	fmt.Fprintf(c.out, "[%s] %s\n", tag, message)
}

func (c console) Relaunch(page string) {
	fmt.Fprintf(c.out, "navigate: %s\n", page)
}

// shell is the interactive command loop.
type shell struct {
	app    *app.App
	out    io.Writer
	prompt *prompter
}

// repl runs the interactive shell loop until exit or end of input.
func repl(ctx context.Context, a *app.App, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	sh := &shell{app: a, out: out, prompt: &prompter{scanner: scanner, out: out}}

	for {
		fmt.Fprint(out, "gophmall> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(out, "Bye")
			return
		}
		if err := sh.run(ctx, args[0], args[1:]); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

var errUsage = errors.New("wrong arguments, type 'help' for usage")

func (sh *shell) run(ctx context.Context, cmd string, args []string) error {
	a := sh.app
	switch cmd {
	case "help":
		fmt.Fprintln(sh.out, helpText)
		return nil
	case "login":
		user, err := a.Session.Login(ctx, api.Credentials{
			Username: sh.prompt.arg(args, 0, "username"),
			Password: sh.prompt.arg(args, 1, "password"),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "signed in as %s (%s)\n", user.Username, user.Role)
		return nil
	case "register":
		res, err := a.Session.Register(ctx, map[string]string{
			"username": sh.prompt.arg(args, 0, "username"),
			"password": sh.prompt.arg(args, 1, "password"),
		})
		if err != nil {
			return err
		}
		if res.User == nil {
			fmt.Fprintln(sh.out, "registered, please log in")
			return nil
		}
		fmt.Fprintf(sh.out, "registered and signed in as %s\n", res.User.Username)
		return nil
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		u := a.Session.CurrentUser()
		if u == nil || !a.Session.IsAuthenticated() {
			fmt.Fprintln(sh.out, "not signed in")
			return nil
		}
		fmt.Fprintf(sh.out, "%s (%s) id=%s\n", u.Username, u.Role, u.ID)
		return nil
	case "home":
		return sh.home(ctx)
	case "products":
		return sh.products(ctx, strings.Join(args, " "))
	case "product":
		if len(args) != 1 {
			return errUsage
		}
		p, err := a.Fetch("failed to load product", func() (*api.Response, error) {
			return a.API.ProductDetail(ctx, args[0])
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "%s  %s  price %s  stock %d\n",
			p.Get("productId").String(), p.Get("name").String(), p.Get("price").String(), p.Get("stock").Int())
		return nil
	case "cart":
		sh.printCart()
		return nil
	case "add":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		qty := 1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return errUsage
			}
			qty = n
		}
		return a.AddProduct(ctx, args[0], qty)
	case "qty":
		if len(args) != 2 {
			return errUsage
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return errUsage
		}
		return a.Cart.UpdateItemQuantity(ctx, args[0], n)
	case "rm":
		if len(args) != 1 {
			return errUsage
		}
		return a.Cart.RemoveItem(ctx, args[0])
	case "toggle":
		if len(args) != 1 {
			return errUsage
		}
		return a.Cart.ToggleItemSelected(ctx, args[0])
	case "select-all":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return errUsage
		}
		return a.Cart.SetAllSelected(ctx, args[0] == "on")
	case "clear":
		return a.Cart.Clear(ctx)
	case "checkout":
		if len(args) != 1 {
			return errUsage
		}
		order, err := a.Checkout(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "order %s placed, total %s\n", order.Get("id").String(), order.Get("total").String())
		return nil
	case "orders":
		orders, err := a.Fetch("failed to load orders", func() (*api.Response, error) {
			return a.API.CustomerOrders(ctx, nil)
		})
		if err != nil {
			return err
		}
		for _, o := range orders.Array() {
			fmt.Fprintf(sh.out, "%s  %s  total %s  lines %d\n",
				o.Get("id").String(), o.Get("status").String(), o.Get("total").String(), len(o.Get("items").Array()))
		}
		return nil
	case "merchants":
		if _, err := a.Merchant.LoadManagedMerchants(ctx); err != nil {
			return err
		}
		sh.printMerchants()
		return nil
	case "use":
		if len(args) != 1 {
			return errUsage
		}
		return a.Merchant.SetSelectedMerchant(ctx, args[0])
	case "scope":
		if len(args) == 0 {
			s, err := a.Merchant.Scope(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "scope: %s\n", scopeName(s))
			return nil
		}
		s, err := merchant.ParseScope(args[0])
		if err != nil {
			return err
		}
		return a.Merchant.SetScope(ctx, s)
	default:
		fmt.Fprintln(sh.out, "Unknown command. Type 'help' for a list of commands.")
		return nil
	}
}

func scopeName(s merchant.Scope) string {
	if s == merchant.ScopeNone {
		return "none"
	}
	return string(s)
}

func (sh *shell) home(ctx context.Context) error {
	a := sh.app
	data, err := a.Fetch("failed to load home page", func() (*api.Response, error) {
		return a.API.HomePageData(ctx)
	})
	if err != nil {
		return err
	}
	var categories []string
	for _, c := range data.Get("categories").Array() {
		categories = append(categories, c.String())
	}
	fmt.Fprintf(sh.out, "categories: %s\n", strings.Join(categories, ", "))
	for _, p := range data.Get("featured").Array() {
		fmt.Fprintf(sh.out, "  %s  %s  %s\n", p.Get("productId").String(), p.Get("name").String(), p.Get("price").String())
	}
	return nil
}

func (sh *shell) products(ctx context.Context, keyword string) error {
	a := sh.app
	params := api.Params{}
	if keyword != "" {
		params["keyword"] = keyword
	}
	page, err := a.Fetch("failed to load products", func() (*api.Response, error) {
		return a.API.Products(ctx, params)
	})
	if err != nil {
		return err
	}
	for _, p := range page.Get("list").Array() {
		fmt.Fprintf(sh.out, "%s  %-24s %8s  stock %d\n",
			p.Get("productId").String(), p.Get("name").String(), p.Get("price").String(), p.Get("stock").Int())
	}
	fmt.Fprintf(sh.out, "%d product(s)\n", page.Get("total").Int())
	return nil
}

func (sh *shell) printCart() {
	c := sh.app.Cart
	items := c.Items()
	if len(items) == 0 {
		fmt.Fprintln(sh.out, "cart is empty")
		return
	}
	for _, it := range items {
		mark := " "
		if it.Selected {
			mark = "x"
		}
		fmt.Fprintf(sh.out, "[%s] %s  %s  %d × %s = %s\n",
			mark, it.ProductID, it.Name, it.Quantity, it.Price.StringFixed(2), it.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(sh.out, "selected: %d item(s), total %s\n", c.ItemCount(), c.TotalPrice().StringFixed(2))
}

func (sh *shell) printMerchants() {
	m := sh.app.Merchant
	if !m.HasManagedMerchants() {
		fmt.Fprintln(sh.out, "no managed merchants")
		return
	}
	selected := m.SelectedID()
	for _, mc := range m.Merchants() {
		mark := " "
		if mc.ID == selected {
			mark = "*"
		}
		fmt.Fprintf(sh.out, "%s %s  %s\n", mark, mc.ID, mc.Name)
	}
}

// main parses configuration, restores the client state and runs the shell.
func main() {
	var showVer bool
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	options := config.Parse()

	if showVer {
		fmt.Printf("GophMall Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()

	ctx := context.Background()
	a, err := app.New(ctx, app.OptionsFromConfig(options), log.Log, console{out: os.Stdout})
	if err != nil {
		log.Log.Fatal("failed to start client", zap.Error(err))
	}
	defer a.Close()

	if role := a.Session.Role(); role != "" {
		fmt.Printf("welcome back, %s (%s)\n", a.Session.CurrentUser().Username, role)
	}
	repl(ctx, a, os.Stdin, os.Stdout)
}
