package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/launchkit/launchkit/internal/ai"
	"github.com/launchkit/launchkit/internal/analytics"
	"github.com/launchkit/launchkit/internal/api"
	"github.com/launchkit/launchkit/internal/auth"
	"github.com/launchkit/launchkit/internal/campaign"
	"github.com/launchkit/launchkit/internal/chatbot"
	"github.com/launchkit/launchkit/internal/config"
	"github.com/launchkit/launchkit/internal/imagegen"
	"github.com/launchkit/launchkit/internal/lead"
	"github.com/launchkit/launchkit/internal/website"
)

// checkPortAvailable verifies the target port is free before any slow
// initialization happens.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func openDatabase(dbURL string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	if !strings.Contains(dbURL, "connect_timeout") {
		dbURL += sep + "connect_timeout=5"
		sep = "&"
	}
	dbURL += sep + "options=-c%20statement_timeout%3D15000"
	log.Printf("DB URL host portion: ...@%s/...", extractHost(dbURL))

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)
	return db, nil
}

func main() {
	log.Println("LaunchKit server starting")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := openDatabase(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		log.Printf("Warning: database ping failed: %v — continuing, queries will retry", err)
	} else {
		log.Println("Database connected")
	}
	pingCancel()

	// Redis is optional: chat sessions fall back to memory and locks fall
	// back to PG advisory locks without it.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed: %v — using in-memory sessions and PG advisory locks", err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s", cfg.Redis.URL)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured — using in-memory sessions and PG advisory locks")
	}

	// AWS clients. The storage region serves S3/DynamoDB/SES; ACM and
	// CloudFront for custom domains must run in us-east-1.
	var (
		s3Client     *s3.Client
		dynamoClient *dynamodb.Client
		sesClient    *sesv2.Client
		acmClient    *acm.Client
		cfClient     *cloudfront.Client
		r53Client    *route53.Client
	)
	awsRegion := cfg.Storage.AWSRegion
	if awsRegion == "" {
		awsRegion = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		log.Printf("Warning: failed to load AWS config: %v — S3, DynamoDB, SES, and domains disabled", err)
	} else {
		if cfg.Storage.S3Bucket != "" {
			s3Client = s3.NewFromConfig(awsCfg)
		}
		if cfg.Storage.DynamoDBTable != "" {
			dynamoClient = dynamodb.NewFromConfig(awsCfg)
		}
		if cfg.Email.Enabled {
			if cfg.Email.AccessKey != "" && cfg.Email.SecretKey != "" {
				// Sending account may differ from the storage account
				sesCfg, err := awsconfig.LoadDefaultConfig(ctx,
					awsconfig.WithRegion(cfg.Email.Region),
					awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Email.AccessKey, cfg.Email.SecretKey, "")),
				)
				if err != nil {
					log.Printf("Warning: failed to load SES AWS config: %v — email delivery disabled", err)
				} else {
					sesClient = sesv2.NewFromConfig(sesCfg)
				}
			} else {
				sesClient = sesv2.NewFromConfig(awsCfg)
			}
		}
		if cfg.Domains.Enabled {
			useast1, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion("us-east-1"))
			if err != nil {
				log.Printf("Warning: failed to load us-east-1 AWS config: %v — domains disabled", err)
			} else {
				acmClient = acm.NewFromConfig(useast1)
				cfClient = cloudfront.NewFromConfig(useast1)
				r53Client = route53.NewFromConfig(awsCfg)
			}
		}
	}

	// Text providers, tried in order: Anthropic, OpenAI, Bedrock
	var generators []ai.TextGenerator
	if cfg.Anthropic.APIKey != "" {
		generators = append(generators, ai.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.Timeout()))
		log.Printf("Anthropic provider enabled (model %s)", cfg.Anthropic.Model)
	}
	var openaiClient *goopenai.Client
	if cfg.OpenAI.APIKey != "" {
		openaiClient = goopenai.NewClient(cfg.OpenAI.APIKey)
		generators = append(generators, ai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
		log.Printf("OpenAI provider enabled (model %s)", cfg.OpenAI.Model)
	}
	if cfg.Bedrock.Enabled {
		bedrockCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Bedrock.Region))
		if err != nil {
			log.Printf("Warning: failed to load Bedrock AWS config: %v", err)
		} else {
			generators = append(generators, ai.NewBedrockClient(bedrockruntime.NewFromConfig(bedrockCfg), cfg.Bedrock.ModelID))
			log.Printf("Bedrock provider enabled (model %s)", cfg.Bedrock.ModelID)
		}
	}
	if len(generators) == 0 {
		log.Println("Warning: no text providers configured — generation endpoints will fail")
	}
	chain := ai.NewChain(generators...)

	// Auth
	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := fmt.Sprintf("http://%s:%d", host, port)
		if envURL := os.Getenv("AUTH_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
		authManager = auth.NewManager(&cfg.Auth, baseURL)
		authManager.CleanupExpiredSessions()
		log.Printf("Google OAuth enabled (callback: %s/auth/callback)", baseURL)
	} else {
		log.Println("Authentication disabled")
	}

	handlers := api.NewHandlers(authManager)
	for _, g := range generators {
		handlers.SetProviders(g.Name())
	}

	// Leads
	leadStore := lead.NewStore(db, redisClient)
	handlers.SetLeads(leadStore)

	// Websites
	siteGen := website.NewGenerator(chain)
	siteStore := website.NewStore(db)
	renderer := website.NewRenderer()
	var domainSvc *website.DomainService
	if acmClient != nil && cfClient != nil && r53Client != nil && cfg.Domains.HostedZoneID != "" {
		domainSvc = website.NewDomainService(siteStore, acmClient, cfClient, r53Client, cfg.Domains.HostedZoneID, cfg.Domains.SiteBucket)
		log.Println("Custom domain provisioning enabled")
	}
	handlers.SetWebsites(siteGen, renderer, siteStore, domainSvc)

	// Campaigns
	campaignGen := campaign.NewGenerator(chain)
	campaignStore := campaign.NewStore(db)
	var sender *campaign.Sender
	if sesClient != nil {
		sender = campaign.NewSender(sesClient, campaignStore, leadStore, cfg.Email.FromAddress, cfg.Email.FromName)
		log.Printf("Email delivery enabled (from %s)", cfg.Email.FromAddress)
	}
	rssService := campaign.NewRSSService(campaignStore, campaignGen)
	handlers.SetCampaigns(campaignGen, campaignStore, sender, rssService)
	if cfg.RSS.Enabled {
		go rssService.Run(ctx, cfg.RSS.PollInterval())
	}

	// Chatbot
	var sessions chatbot.SessionStore
	if redisClient != nil {
		sessions = chatbot.NewRedisSessionStore(redisClient, cfg.Redis.SessionTTL())
	} else {
		sessions = chatbot.NewMemorySessionStore()
	}
	handlers.SetChat(chatbot.NewService(chain, sessions, cfg.Chatbot.MaxHistoryTurns))

	// Reports
	var archive *analytics.Archive
	if dynamoClient != nil && s3Client != nil {
		archive = analytics.NewArchive(dynamoClient, s3Client, cfg.Storage.DynamoDBTable, cfg.Storage.S3Bucket)
		log.Println("Report archival enabled")
	}
	handlers.SetReports(analytics.NewReportService(db, leadStore, chain, archive), archive)

	// Images
	if s3Client != nil {
		var imageClient imagegen.ImageClient
		if openaiClient != nil {
			imageClient = openaiClient
		}
		handlers.SetImages(imagegen.NewService(imageClient, s3Client, cfg.OpenAI.ImageModel, cfg.Storage.S3Bucket, cfg.Storage.CDNDomain))
		log.Printf("Image generation enabled (bucket %s)", cfg.Storage.S3Bucket)
	}

	limiter := api.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Enabled, cfg.Auth.CookieName)
	server := api.NewServer(cfg.Server, handlers, authManager, limiter)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()
	log.Println("Server stopped")
}
