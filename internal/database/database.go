package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agromarket_back_end/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Scylla  *gocql.Session
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
)

// ConnectDatabases opens ScyllaDB and Redis, which are required, then
// Elasticsearch and MinIO, which are left nil with a warning when they are
// not configured or unreachable.
func ConnectDatabases(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	session, err := connectScylla(cfg.Scylla, log)
	if err != nil {
		return fmt.Errorf("scylla: %w", err)
	}
	Scylla = session

	client, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	Redis = client
	log.Info("connected to redis", zap.String("addr", cfg.Redis.Host))

	if cfg.Elastic.URL == "" {
		log.Warn("ELASTIC_URL not set, product search falls back to the catalog pipeline")
	} else if es, err := connectElastic(cfg.Elastic); err != nil {
		log.Warn("elasticsearch unavailable", zap.Error(err))
	} else {
		Elastic = es
		log.Info("connected to elasticsearch", zap.String("url", cfg.Elastic.URL))
	}

	if cfg.MinIO.Endpoint == "" {
		log.Warn("MINIO_ENDPOINT not set, crop image uploads are disabled")
	} else if mc, err := connectMinIO(ctx, cfg.MinIO, log); err != nil {
		log.Warn("minio unavailable", zap.Error(err))
	} else {
		MinIO = mc
		log.Info("connected to minio", zap.String("endpoint", cfg.MinIO.Endpoint))
	}

	return nil
}

// CloseDatabases releases every open client.
func CloseDatabases() {
	if Scylla != nil {
		Scylla.Close()
	}
	if Redis != nil {
		_ = Redis.Close()
	}
}

func connectScylla(cfg config.ScyllaConfig, log *zap.Logger) (*gocql.Session, error) {
	if len(cfg.Hosts) == 0 {
		return nil, errors.New("SCYLLA_HOSTS not set")
	}

	// The keyspace may not exist yet, so bootstrap without one first.
	bootstrap, err := newCluster(cfg, "").CreateSession()
	if err != nil {
		return nil, err
	}
	err = EnsureSchema(bootstrap, cfg.Keyspace)
	bootstrap.Close()
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	session, err := newCluster(cfg, cfg.Keyspace).CreateSession()
	if err != nil {
		return nil, err
	}
	log.Info("connected to scylla",
		zap.Strings("hosts", cfg.Hosts),
		zap.String("keyspace", cfg.Keyspace))
	return session, nil
}

func newCluster(cfg config.ScyllaConfig, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 4
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = time.Second
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host,
		Password:     cfg.Password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func connectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	res, err := client.Info()
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("info: %s", res.Status())
	}
	return client, nil
}

func connectMinIO(ctx context.Context, cfg config.MinIOConfig, log *zap.Logger) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		log.Info("created minio bucket", zap.String("bucket", cfg.Bucket))
	}
	return client, nil
}
