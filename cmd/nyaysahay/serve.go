package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nyaysahay/nyaysahay/cmd/flags"
	"github.com/nyaysahay/nyaysahay/pkg/ai"
	apicache "github.com/nyaysahay/nyaysahay/pkg/apis/cache"
	"github.com/nyaysahay/nyaysahay/pkg/auth"
	"github.com/nyaysahay/nyaysahay/pkg/cache/redis"
	"github.com/nyaysahay/nyaysahay/pkg/chat"
	"github.com/nyaysahay/nyaysahay/pkg/conversations"
	"github.com/nyaysahay/nyaysahay/pkg/db"
	"github.com/nyaysahay/nyaysahay/pkg/memory"
	"github.com/nyaysahay/nyaysahay/pkg/server"
	"github.com/nyaysahay/nyaysahay/pkg/storage"
)

type ServerFlags struct {
	DBFlags      *flags.PostgresDatabaseFlags
	AIFlags      *flags.AIFlags
	AuthFlags    *flags.AuthFlags
	StorageFlags *flags.StorageFlags
	MailFlags    *flags.MailFlags
	ListenAddr   string
	MetricsAddr  string
	InitDatabase bool
}

func NewServerFlags() *ServerFlags {
	return &ServerFlags{
		DBFlags:      flags.NewPostgresDatabaseFlags(),
		AIFlags:      flags.NewAIFlags(),
		AuthFlags:    flags.NewAuthFlags(),
		StorageFlags: flags.NewStorageFlags(),
		MailFlags:    flags.NewMailFlags(),
		ListenAddr:   ":8080",
		MetricsAddr:  ":2112",
	}
}

func (f *ServerFlags) BindFlags(fs *pflag.FlagSet) {
	f.DBFlags.BindFlags(fs)
	f.AIFlags.BindFlags(fs)
	f.AuthFlags.BindFlags(fs)
	f.StorageFlags.BindFlags(fs)
	f.MailFlags.BindFlags(fs)
	fs.StringVar(&f.ListenAddr, "listen", f.ListenAddr, "The address to serve the API on (default :8080)")
	fs.StringVar(&f.MetricsAddr, "listen-metrics", f.MetricsAddr, "The address to serve prometheus metrics on (default :2112)")
	fs.BoolVar(&f.InitDatabase, "init-database", f.InitDatabase, "Migrate the database schema on startup")
}

func NewServeCommand() *cobra.Command {
	f := NewServerFlags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the NyaySahay API and chat gateway",
		Run: func(cmd *cobra.Command, args []string) {
			if f.AuthFlags.JWTSecret == "" {
				log.Fatal("NYAYSAHAY_JWT_SECRET must be set")
			}
			secretKey := []byte(f.AuthFlags.JWTSecret)

			dbc, err := db.New(f.DBFlags.DSN, f.DBFlags.GormLogLevel())
			if err != nil {
				log.WithError(err).Fatal("could not connect to db")
			}

			if f.InitDatabase {
				if err := dbc.UpdateSchema(); err != nil {
					log.WithError(err).Fatal("could not migrate schema")
				}
			}

			var principalCache apicache.Cache
			if f.AuthFlags.RedisURL != "" {
				principalCache, err = redis.NewRedisCache(f.AuthFlags.RedisURL)
				if err != nil {
					log.WithError(err).Fatal("could not connect to redis")
				}
			}

			uploads, err := storage.NewStore(context.Background(), f.StorageFlags.StorageConfig())
			if err != nil {
				log.WithError(err).Fatal("could not configure object storage")
			}

			llm := ai.NewLLMClient(f.AIFlags.BaseURL, f.AIFlags.Model, f.AIFlags.EmbeddingModel)
			store := conversations.NewStore(dbc)
			index := memory.NewIndex(dbc)
			authenticator := auth.NewAuthenticator(dbc, principalCache, secretKey)

			registry := chat.NewRegistry()
			orchestrator := chat.NewOrchestrator(store, index, llm, llm, registry)
			gateway := chat.NewGateway(authenticator, registry, orchestrator)

			// Serve prometheus metrics separately from the API.
			go func() {
				log.Infof("Serving metrics on %s", f.MetricsAddr)
				http.Handle("/metrics", promhttp.Handler())
				if err := http.ListenAndServe(f.MetricsAddr, nil); err != nil {
					log.WithError(err).Error("metrics listener failed")
				}
			}()

			srv := server.NewServer(
				f.ListenAddr,
				dbc,
				store,
				authenticator,
				gateway,
				uploads,
				f.MailFlags.Sender(),
				secretKey,
				f.AuthFlags.SecureCookies,
			)
			if err := srv.Serve(); err != nil {
				log.WithError(err).Fatal("server exited")
			}
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}
