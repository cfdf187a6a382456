// Command storefront is the BLYTZ.LIVE marketplace client. It wires the
// REST client, the session stores, and the checkout wizard behind a small
// interactive prompt.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/blytz-live/storefront/internal/api"
	"github.com/blytz-live/storefront/internal/domain"
	"github.com/blytz-live/storefront/internal/platform/config"
	"github.com/blytz-live/storefront/internal/platform/observability"
	"github.com/blytz-live/storefront/internal/services"
	"github.com/blytz-live/storefront/internal/state"
)

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")
	events := observability.EventLogger(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = observability.WithLogger(ctx, logger)

	tokens := api.NewTokenStore(cfg.State.TokenPath)

	client, err := api.NewClient(api.ClientDeps{
		BaseURL: cfg.API.BaseURL,
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.API.Timeout,
		},
		Tokens:    tokens,
		Logger:    events,
		UserAgent: "blytz-storefront/1.0",
	})
	if err != nil {
		logger.Fatal("failed to initialise api client", zap.Error(err))
	}

	local, err := newStateRepository(cfg.State, tokens)
	if err != nil {
		logger.Fatal("failed to initialise cart persistence", zap.Error(err))
	}

	cart, err := services.NewCartStore(services.CartStoreDeps{
		Backend: client.Cart,
		Local:   local,
		Logger:  events,
	})
	if err != nil {
		logger.Fatal("failed to initialise cart store", zap.Error(err))
	}

	catalog, err := services.NewCatalogSnapshot(services.CatalogSnapshotDeps{
		Products: client.Products,
		PageSize: cfg.API.CatalogPageSize,
		Logger:   events,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog snapshot", zap.Error(err))
	}

	checkout, err := services.NewCheckoutFlow(services.CheckoutFlowDeps{
		Cart:     cart,
		Orders:   client.Orders,
		Payments: client.Payments,
		Session:  tokens,
		Logger:   events,
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout flow", zap.Error(err))
	}

	var assistant *services.ChatAssistant
	if cfg.Features.EnableChat {
		model, err := api.NewGenAIClient(api.GenAIDeps{
			Endpoint: cfg.Chat.Endpoint,
			Model:    cfg.Chat.Model,
			APIKey:   cfg.Chat.APIKey,
			Logger:   events,
		})
		if err != nil {
			logger.Fatal("failed to initialise chat client", zap.Error(err))
		}
		assistant, err = services.NewChatAssistant(services.ChatAssistantDeps{
			Model:   model,
			Catalog: catalog,
			Logger:  events,
		})
		if err != nil {
			logger.Fatal("failed to initialise chat assistant", zap.Error(err))
		}
	}

	catalog.Refresh(ctx)
	cart.Load(ctx)

	app := &application{
		cart:      cart,
		catalog:   catalog,
		checkout:  checkout,
		assistant: assistant,
		client:    client,
		tokens:    tokens,
	}
	app.run(ctx)
}

// newStateRepository picks the cart persistence backend: Redis when an
// address is configured (keyed by the logged-in user, "guest" otherwise),
// the local JSON file else.
func newStateRepository(cfg config.StateConfig, tokens *api.TokenStore) (state.Repository, error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		userID := "guest"
		if user := tokens.User(); user != nil && user.ID != "" {
			userID = user.ID
		}
		return state.NewRedisRepository(client, userID, cfg.RedisTTL)
	}
	return state.NewFileRepository(cfg.CartPath)
}

type application struct {
	cart      *services.CartStore
	catalog   *services.CatalogSnapshot
	checkout  *services.CheckoutFlow
	assistant *services.ChatAssistant
	client    *api.Client
	tokens    *api.TokenStore
}

func (a *application) run(ctx context.Context) {
	fmt.Println("BLYTZ.LIVE storefront. Commands: browse, add <id> [qty], cart, remove <id>, qty <id> <n>, login <email> <password>, ship, pay [method], chat <text>, quit")
	reader := bufio.NewReader(os.Stdin)
	for {
		if ctx.Err() != nil {
			fmt.Println()
			return
		}
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		if quit := a.dispatch(ctx, reader, strings.Fields(strings.TrimSpace(line))); quit {
			return
		}
	}
}

func (a *application) dispatch(ctx context.Context, reader *bufio.Reader, args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "quit", "exit":
		return true
	case "browse":
		a.catalog.Refresh(ctx)
		for _, product := range a.catalog.Products() {
			fmt.Printf("%-24s %-28s %10s  %s\n", product.ID, product.Title, product.Price.Format(language.English), product.Category)
		}
	case "add":
		if len(args) < 2 {
			fmt.Println("usage: add <id> [qty]")
			return false
		}
		quantity := 1
		if len(args) > 2 {
			if parsed, err := strconv.Atoi(args[2]); err == nil {
				quantity = parsed
			}
		}
		product, ok := a.catalog.ByID(args[1])
		if !ok {
			fmt.Println("unknown product id")
			return false
		}
		if err := a.cart.AddItem(ctx, product, quantity); err != nil {
			fmt.Println("could not add:", err)
			return false
		}
		fmt.Printf("added %s; cart total %s (%d items)\n", product.Title, a.cart.Total().Format(language.English), a.cart.ItemCount())
	case "cart":
		for _, item := range a.cart.Items() {
			fmt.Printf("%-24s x%-3d %10s\n", item.Title, item.Quantity, item.LineTotal().Format(language.English))
		}
		fmt.Printf("total %s\n", a.cart.Total().Format(language.English))
	case "remove":
		if len(args) < 2 {
			fmt.Println("usage: remove <id>")
			return false
		}
		a.cart.RemoveItem(ctx, args[1])
	case "qty":
		if len(args) < 3 {
			fmt.Println("usage: qty <id> <n>")
			return false
		}
		quantity, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Println("usage: qty <id> <n>")
			return false
		}
		a.cart.UpdateQuantity(ctx, args[1], quantity)
	case "login":
		if len(args) < 3 {
			fmt.Println("usage: login <email> <password>")
			return false
		}
		user, err := a.client.Auth.Login(ctx, args[1], args[2])
		if err != nil {
			fmt.Println("login failed:", err)
			return false
		}
		if user != nil && user.Email != "" {
			fmt.Println("logged in as", user.Email)
		} else {
			fmt.Println("logged in")
		}
	case "ship":
		address := promptAddress(reader)
		if err := a.checkout.SubmitShipping(ctx, address, domain.Address{}, ""); err != nil {
			fmt.Println("shipping step failed:", err)
			return false
		}
		fmt.Println("shipping accepted; run `pay` to complete")
	case "pay":
		method := ""
		if len(args) > 1 {
			method = args[1]
		}
		if err := a.checkout.SubmitPayment(ctx, method); err != nil {
			fmt.Println("payment failed, retry with `pay`:", err)
			return false
		}
		fmt.Printf("order %s confirmed\n", a.checkout.OrderID())
		a.checkout.Reset()
	case "chat":
		if a.assistant == nil {
			fmt.Println("chat is disabled")
			return false
		}
		if len(args) < 2 {
			fmt.Println("usage: chat <text>")
			return false
		}
		reply := a.assistant.Send(ctx, strings.Join(args[1:], " "))
		fmt.Println(reply)
	default:
		fmt.Println("unknown command:", args[0])
	}
	return false
}

func promptAddress(reader *bufio.Reader) domain.Address {
	read := func(label string) string {
		fmt.Printf("%s: ", label)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}
	return domain.Address{
		FirstName:  read("first name"),
		LastName:   read("last name"),
		Line1:      read("address line 1"),
		City:       read("city"),
		State:      read("state"),
		PostalCode: read("postal code"),
		Country:    read("country"),
	}
}
