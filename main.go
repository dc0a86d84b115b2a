package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
	conversationx "github.com/kornthana/orderdesk-agent/engine/conversation"
	dialoguex "github.com/kornthana/orderdesk-agent/engine/dialogue"
	kbx "github.com/kornthana/orderdesk-agent/engine/kb"
	orderx "github.com/kornthana/orderdesk-agent/engine/order"
	statex "github.com/kornthana/orderdesk-agent/engine/state"
	configx "github.com/kornthana/orderdesk-agent/pkg/config"
	_ "github.com/kornthana/orderdesk-agent/pkg/logger/autoload"
	metricsx "github.com/kornthana/orderdesk-agent/pkg/metrics"
	twiliox "github.com/kornthana/orderdesk-agent/pkg/twilio"
	serverx "github.com/kornthana/orderdesk-agent/server"
	storagex "github.com/kornthana/orderdesk-agent/storage"
)

type AppConfig struct {
	BusinessHours string `envconfig:"BUSINESS_HOURS" default:"Mon-Fri 9:00-18:00"`
	OpenHour      int    `envconfig:"OPEN_HOUR" default:"9"`
	CloseHour     int    `envconfig:"CLOSE_HOUR" default:"18"`
	ContactEmail  string `envconfig:"CONTACT_EMAIL" default:"support@orderdesk.example"`
	// Products is a name:price_cents list, e.g. "Widget:4999,Gadget:12900".
	Products string `envconfig:"PRODUCTS" required:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")

	products, err := orderx.ParseProducts(appCfg.Products)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid product list")
	}

	kb, err := kbx.New(kbx.DefaultEntries(appCfg.BusinessHours, appCfg.ContactEmail),
		kbx.WithSchedule(kbx.Schedule{OpenHour: appCfg.OpenHour, CloseHour: appCfg.CloseHour}))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid knowledge base")
	}

	store := buildStore()
	customers, orders, history, catalog := buildRepositories(ctx, products)

	dialogueCfg := dialoguex.DefaultConfig()
	machine, err := dialoguex.NewMachine(dialogueCfg, catalog, kb, orders)
	if err != nil {
		log.Fatal().Err(err).Msg("dialogue machine init failed")
	}
	assembler, err := orderx.NewAssembler(dialogueCfg, catalog, orders)
	if err != nil {
		log.Fatal().Err(err).Msg("order assembler init failed")
	}

	engineMetrics := metricsx.NewEngineMetrics(nil)
	// Twilio assigns random message sids, so dedup matches exact ids
	// instead of relying on id ordering.
	engine, err := conversationx.New(store, machine, assembler, customers, history, engineMetrics, conversationx.Config{
		UnorderedMessageIDs: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("conversation engine init failed")
	}

	twilioCfg := configx.MustNew[twiliox.Config]("TWILIO")
	transport := twiliox.MustNew(*twilioCfg)

	serverCfg := configx.MustNew[serverx.Config]("HTTP")
	srv, err := serverx.New(*serverCfg, engine, transport, history, engineMetrics)
	if err != nil {
		log.Fatal().Err(err).Msg("server init failed")
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("orderdesk agent listening")
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("orderdesk agent stopped")
}

// buildStore picks the session store: Redis when REDIS_ADDR is set,
// in-process otherwise.
func buildStore() statex.Store {
	if os.Getenv("REDIS_ADDR") == "" {
		log.Info().Msg("REDIS_ADDR unset, using in-memory session store")
		return statex.NewMemoryStore()
	}
	redisCfg := configx.MustNew[statex.RedisConfig]("REDIS")
	store, err := statex.NewRedisStoreFromConfig(*redisCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis store init failed")
	}
	return store
}

// buildRepositories picks Postgres when DATABASE_URL is set, otherwise
// the in-memory repositories and static catalog.
func buildRepositories(ctx context.Context, products []contractx.Product) (contractx.CustomerRepository, contractx.OrderRepository, contractx.ConversationLog, contractx.Catalog) {
	if os.Getenv("DATABASE_URL") == "" {
		log.Info().Msg("DATABASE_URL unset, using in-memory repositories")
		return storagex.NewMemoryCustomers(), storagex.NewMemoryOrders(), storagex.NewMemoryLog(), orderx.NewStaticCatalog(products)
	}

	dbCfg := configx.MustNew[storagex.Config]("")
	db, err := storagex.Open(ctx, *dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	if err := storagex.CreateSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	if err := storagex.SeedProducts(ctx, db, products); err != nil {
		log.Fatal().Err(err).Msg("catalog seed failed")
	}
	return storagex.NewCustomerRepo(db), storagex.NewOrderRepo(db), storagex.NewConversationRepo(db), storagex.NewDBCatalog(db)
}
