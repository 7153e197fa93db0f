package dbobj

import (
	"context"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"
	mongoOptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type PGConfig struct {
	// Driver is "pgx" (default) or "postgres" for lib/pq.
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslmode"`
}

func (c PGConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}

	return u.String()
}

func ConnectPostgresql(config PGConfig) (*sqlx.DB, error) {
	driver := config.Driver
	if driver == "" {
		driver = "pgx"
	}

	if driver != "pgx" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported postgres driver %q", driver)
	}

	return sqlx.Open(driver, config.DSN())
}

type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

func ConnectMongo(ctx context.Context, config MongoConfig) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, mongoOptions.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb. %w", err)
	}

	return client.Database(config.Database), nil
}

// OpenStore connects to the backend named by cfg. The returned func closes
// the connection.
func OpenStore(ctx context.Context, cfg Config, logger *zap.Logger) (Store, func() error, error) {
	options := []StoreOption{
		WithStoreLogger(logger),
		WithSlowThreshold(time.Duration(cfg.SlowThreshold)),
	}

	switch cfg.Backend {
	case "mongo":
		db, err := ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}

		closeFn := func() error {
			return db.Client().Disconnect(context.Background())
		}

		return NewMongoStore(db, options...), closeFn, nil

	case "postgres", "":
		db, err := ConnectPostgresql(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}

		return NewSQLStore(db, options...), db.Close, nil

	default:
		db, err := sqlx.Open(cfg.Backend, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}

		return NewSQLStore(db, options...), db.Close, nil
	}
}
