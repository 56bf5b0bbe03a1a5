// Command shopctl signs in to a storefront server and inspects the account
// from a terminal. The session is kept in a YAML file between runs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"storefront/pkg/apiclient"
	"storefront/pkg/session"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// defaultServer matches the API's default APP_PORT.
const defaultServer = "http://localhost:8080"

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "shopctl", "session.yaml")
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "shopctl",
		Usage: "storefront account from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   defaultServer,
				Usage:   "storefront server base URL",
				EnvVars: []string{"SHOPCTL_SERVER"},
			},
			&cli.StringFlag{
				Name:    "session",
				Value:   defaultSessionPath(),
				Usage:   "file holding the signed in session",
				EnvVars: []string{"SHOPCTL_SESSION"},
			},
		},
		Before: func(c *cli.Context) error {
			store, err := session.NewFileStore(c.String("session"))
			if err != nil {
				return err
			}
			client := apiclient.New(c.String("server"))
			c.Context = session.WithProvider(c.Context, session.NewProvider(store, client))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "sign in and remember the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"SHOPCTL_PASSWORD"}},
				},
				Action: login,
			},
			{
				Name:   "logout",
				Usage:  "end the session on the server and forget it locally",
				Action: logout,
			},
			{
				Name:   "whoami",
				Usage:  "print the signed in user",
				Action: whoami,
			},
			{
				Name:  "orders",
				Usage: "list your orders",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: orders,
			},
		},
	}
}

func provider(ctx context.Context) (*session.Provider, error) {
	p := session.FromContext(ctx)
	if p == nil {
		return nil, cli.Exit("session is not initialised", 1)
	}
	return p, nil
}

func login(c *cli.Context) error {
	p, err := provider(c.Context)
	if err != nil {
		return err
	}
	creds, err := apiclient.New(c.String("server")).Login(c.Context, c.String("email"), c.String("password"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("login failed: %v", err), 1)
	}
	if err := p.Login(creds.Token, creds.Profile()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Signed in as %s %s (%s)\n", creds.User.FirstName, creds.User.LastName, creds.User.Email)
	return nil
}

func logout(c *cli.Context) error {
	p, err := provider(c.Context)
	if err != nil {
		return err
	}
	if !p.IsLoggedIn() {
		fmt.Fprintln(c.App.Writer, "Not signed in")
		return nil
	}
	if err := p.Logout(c.Context); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Signed out")
	return nil
}

func whoami(c *cli.Context) error {
	p, err := provider(c.Context)
	if err != nil {
		return err
	}
	s := p.Session()
	if !s.LoggedIn() {
		return cli.Exit("Not signed in", 1)
	}
	fmt.Fprintf(c.App.Writer, "%s %s <%s> role=%s\n", s.Profile.FirstName, s.Profile.LastName, s.Profile.Email, s.Profile.Role)
	return nil
}

func orders(c *cli.Context) error {
	p, err := provider(c.Context)
	if err != nil {
		return err
	}
	s := p.Session()
	if !s.LoggedIn() {
		return cli.Exit("Not signed in", 1)
	}

	page, err := apiclient.New(c.String("server")).MyOrders(c.Context, s.Token, c.Int("page"), c.Int("limit"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to list orders: %v", err), 1)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPAYMENT\tPAID\tTOTAL\tCREATED")
	for _, o := range page.Orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			o.ID, o.OrderStatus, o.PaymentMethod, o.PaymentResult.Status,
			o.TotalPrice.StringFixed(2), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "page %d of %d\n", page.CurrentPage, page.TotalPages)
	return nil
}
