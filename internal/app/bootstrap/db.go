// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	loginstore "github.com/dalemusser/clinica/internal/app/store/logins"
	medicostore "github.com/dalemusser/clinica/internal/app/store/medicos"
	"github.com/dalemusser/clinica/internal/app/store/oauthstate"
	pacientestore "github.com/dalemusser/clinica/internal/app/store/pacientes"
	turnostore "github.com/dalemusser/clinica/internal/app/store/turnos"
	userstore "github.com/dalemusser/clinica/internal/app/store/users"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and, for the redis session backend, Redis.
// Both are pinged so a bad address fails startup instead of the first request.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	if appCfg.SessionBackend == backendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			_ = client.Disconnect(ctx)
			return DBDeps{}, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr), zap.Int("db", appCfg.RedisDB))
		deps.Redis = rdb
	}

	return deps, nil
}

// indexer is implemented by every store that owns indexes.
type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureSchema creates the indexes each store relies on: unique usernames,
// DNIs and matriculas, turno lookups, and the OAuth state TTL.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	stores := []struct {
		name string
		ix   indexer
	}{
		{"usuarios", userstore.New(db)},
		{"pacientes", pacientestore.New(db)},
		{"medicos", medicostore.New(db)},
		{"turnos", turnostore.New(db)},
		{"oauth_states", oauthstate.New(db)},
		{"logins", loginstore.New(db)},
	}
	for _, s := range stores {
		ictx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		err := s.ix.EnsureIndexes(ictx)
		cancel()
		if err != nil {
			logger.Error("ensure indexes failed", zap.String("collection", s.name), zap.Error(err))
			return fmt.Errorf("ensure %s indexes: %w", s.name, err)
		}
	}
	logger.Info("indexes ensured", zap.Int("collections", len(stores)))
	return nil
}
