// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, SES, blob storage)
// and composes the mailer module. This is the only place that knows about
// every dependency.
package main

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/caremail/pkg/blobstore"
	"github.com/Abraxas-365/caremail/pkg/config"
	"github.com/Abraxas-365/caremail/pkg/logx"
	"github.com/Abraxas-365/caremail/pkg/mailer"
	"github.com/Abraxas-365/caremail/pkg/mailer/mailerconsole"
	"github.com/Abraxas-365/caremail/pkg/mailer/mailerhttp"
	"github.com/Abraxas-365/caremail/pkg/mailer/mailerinfra"
	"github.com/Abraxas-365/caremail/pkg/mailer/mailerses"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the composed mailer module.
type Container struct {
	Config *config.Config

	DB        *sqlx.DB
	Redis     *redis.Client
	Blobs     blobstore.Store
	SESClient *ses.Client

	MailerService  *mailer.Service
	MailerHandlers *mailerhttp.Handlers
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("initializing application container")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initMailer()

	logx.Info("application container initialized")
	return c
}

func (c *Container) initInfrastructure() {
	// 1. Database
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Config.Database.Host,
		c.Config.Database.Port,
		c.Config.Database.User,
		c.Config.Database.Password,
		c.Config.Database.Name,
		c.Config.Database.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logx.Fatalf("failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("database connected")

	// 2. Redis (optional; only backs send idempotency keys)
	if c.Config.Redis.Enabled() {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
			logx.Fatalf("failed to connect to Redis: %v", err)
		}
		logx.Info("redis connected")
	} else {
		logx.Warn("redis not configured, send idempotency keys disabled")
	}

	// 3. Blob storage for uploaded attachments
	c.initBlobStorage()
}

func (c *Container) initBlobStorage() {
	switch c.Config.Storage.Mode {
	case "s3":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
			awsConfig.WithRegion(c.Config.Mailer.AWSRegion))
		if err != nil {
			logx.Fatalf("unable to load AWS SDK config: %v", err)
		}
		c.Blobs = blobstore.NewS3Store(s3.NewFromConfig(awsCfg), c.Config.Storage.S3Bucket, c.Config.Storage.S3Prefix)
		logx.Infof("s3 blob storage configured (bucket: %s)", c.Config.Storage.S3Bucket)

	case "local":
		local, err := blobstore.NewLocalStore(c.Config.Storage.LocalDir)
		if err != nil {
			logx.Fatalf("failed to initialize local blob storage: %v", err)
		}
		c.Blobs = local
		logx.Infof("local blob storage configured (path: %s)", local.BasePath())

	default:
		logx.Fatalf("unknown STORAGE_MODE: %s (use 'local' or 's3')", c.Config.Storage.Mode)
	}
}

func (c *Container) initMailer() {
	if err := mailerinfra.Migrate(context.Background(), c.DB); err != nil {
		logx.Fatalf("failed to run mailer migrations: %v", err)
	}

	repo := mailerinfra.NewPostgresRepository(c.DB)

	var guard mailer.IdempotencyGuard
	if c.Redis != nil {
		guard = mailerinfra.NewRedisIdempotencyGuard(c.Redis, c.Config.Mailer.IdempotencyTTL)
	}

	var sender mailer.Sender
	switch c.Config.Mailer.Provider {
	case "ses":
		sender = mailerses.NewSESProvider(c.newSESClient())
		logx.Infof("ses transport configured (region: %s, from: %s)",
			c.Config.Mailer.AWSRegion, c.Config.Mailer.FromAddress)
	case "console":
		sender = mailerconsole.NewConsoleProvider()
		logx.Warn("console transport configured, emails will only be logged")
	default:
		logx.Fatalf("unknown MAILER_PROVIDER: %s (use 'ses' or 'console')", c.Config.Mailer.Provider)
	}

	c.MailerService = mailer.NewService(repo, sender, c.Blobs, guard,
		c.Config.Mailer.FromName, c.Config.Mailer.FromAddress)
	c.MailerHandlers = mailerhttp.NewHandlers(c.MailerService)
}

func (c *Container) newSESClient() *ses.Client {
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(c.Config.Mailer.AWSRegion),
	}
	if c.Config.Mailer.AWSAccessKeyID != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				c.Config.Mailer.AWSAccessKeyID,
				c.Config.Mailer.AWSSecretAccessKey,
				"",
			)))
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		logx.Fatalf("unable to load AWS SDK config: %v", err)
	}
	c.SESClient = ses.NewFromConfig(awsCfg)
	return c.SESClient
}

func (c *Container) Cleanup() {
	logx.Info("cleaning up resources")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("error closing database: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("error closing Redis: %v", err)
		}
	}
}
