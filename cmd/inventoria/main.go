// Command inventoria is the terminal client: scan or type an item code,
// record stock-in/stock-out, and manage the product/supplier directory for
// the selected team.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oyako-li/inventoria/internal/config"
	"github.com/oyako-li/inventoria/internal/gateway"
	"github.com/oyako-li/inventoria/internal/inventory"
	"github.com/oyako-li/inventoria/internal/model"
	"github.com/oyako-li/inventoria/internal/scanner"
	"github.com/oyako-li/inventoria/internal/session"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env == "production" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	gw := gateway.New(cfg.BaseURL, time.Duration(cfg.TimeoutSeconds)*time.Second)
	sess := session.NewContext(gw, session.NewTokenStore(cfg.TokenPath))
	client := inventory.New(gw, sess)

	app := newApp(cfg, gw, sess, client)
	if err := app.run(); err != nil {
		log.Fatal().Err(err).Msg("client exited")
	}
}

// app owns the event loop. Every command runs to completion before the next
// line is read; network calls are the only waits.
type app struct {
	cfg    *config.Config
	gw     *gateway.Client
	sess   *session.Context
	client *inventory.Client
	views  *views
	scan   *scanner.Scanner

	in  *bufio.Scanner
	out *os.File

	// codes decoded by an active scan session, applied between commands
	scanned chan string
}

func newApp(cfg *config.Config, gw *gateway.Client, sess *session.Context, client *inventory.Client) *app {
	a := &app{
		cfg:     cfg,
		gw:      gw,
		sess:    sess,
		client:  client,
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		scanned: make(chan string, 16),
	}
	a.views = newViews(cfg.PageSize, client)

	// Row selection receives the full entity and opens its detail.
	a.views.products.OnSelect(func(p model.Product) {
		fmt.Fprintf(a.out, "%s  %s\n  baseline %d, current stock %d\n  updated %s by %s\n",
			p.ItemCode, p.ItemName, p.BaselineQuantity, p.CurrentStock,
			p.UpdatedAt.Format("2006-01-02 15:04"), p.UpdatedBy)
	})
	a.views.transactions.OnSelect(func(t model.Transaction) {
		fmt.Fprintf(a.out, "txn %d  %s %s %d\n  supplier %s, by %s\n  edit with: edit %d <in|out> <qty> [supplier]\n",
			t.ID, t.ItemCode, t.Action, t.Magnitude(), t.SupplierCode, t.UpdatedBy, t.ID)
	})
	a.views.suppliers.OnSelect(func(s model.Supplier) {
		fmt.Fprintf(a.out, "%s  %s (%s)\n  %s\n",
			s.SupplierCode, s.SupplierName, s.SupplierType, s.SupplierAddress)
	})

	// Forced logout on any 401, whatever endpoint triggered it.
	gw.SetUnauthorizedCallback(func() {
		sess.Logout()
		fmt.Fprintln(a.out, "session expired, please log in again")
	})

	// Explicit subscription: switching teams discards and reloads all data.
	sess.OnTeamChanged(func(team *model.Team) {
		if err := client.ReloadAll(context.Background()); err != nil {
			log.Warn().Str("team", team.Name).Err(err).Msg("reload after team switch failed")
			return
		}
		a.views.refresh()
	})
	return a
}

func (a *app) run() error {
	ctx := context.Background()

	if err := a.sess.Bootstrap(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore session")
	}
	if a.sess.IsAuthenticated() {
		fmt.Fprintf(a.out, "welcome back, %s (team: %s)\n", a.sess.User().Name, teamName(a.sess))
		if err := a.client.ReloadAll(ctx); err != nil {
			log.Warn().Err(err).Msg("initial load failed")
		}
		a.views.refresh()
	} else {
		fmt.Fprintln(a.out, "not logged in, use: login <email> <password>")
	}

	for {
		a.drainScanned()
		fmt.Fprint(a.out, "> ")
		if !a.in.Scan() {
			return a.in.Err()
		}
		line := strings.TrimSpace(a.in.Text())
		if line == "" {
			continue
		}
		args := strings.Fields(line)
		if args[0] == "quit" || args[0] == "exit" {
			return nil
		}
		if err := a.dispatch(ctx, args); err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
	}
}

// drainScanned applies codes decoded since the last command: a scanned code
// becomes the active query, as if typed into the search box.
func (a *app) drainScanned() {
	for {
		select {
		case code := <-a.scanned:
			fmt.Fprintf(a.out, "scanned: %s\n", code)
			a.views.setQuery(code)
		default:
			return
		}
	}
}

func teamName(sess *session.Context) string {
	if t := sess.Team(); t != nil {
		return t.Name
	}
	return "none"
}
