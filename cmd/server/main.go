package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"
	"google.golang.org/grpc"

	"github.com/jwyoon/noticebot/internal/chat"
	"github.com/jwyoon/noticebot/internal/config"
	"github.com/jwyoon/noticebot/internal/crawler"
	"github.com/jwyoon/noticebot/internal/customHttpClient"
	"github.com/jwyoon/noticebot/internal/embedding"
	"github.com/jwyoon/noticebot/internal/handlers"
	"github.com/jwyoon/noticebot/internal/indexer"
	"github.com/jwyoon/noticebot/internal/llm"
	"github.com/jwyoon/noticebot/internal/server"
	"github.com/jwyoon/noticebot/internal/store"
	"github.com/jwyoon/noticebot/internal/textify"
	"github.com/jwyoon/noticebot/internal/vector"
	"github.com/jwyoon/noticebot/pkg/logging"
)

var listenAddr string

func main() {
	logging.Init()
	logger := logging.NewLogger("main")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	flag.StringVar(&listenAddr, "listen-addr", cfg.ListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	docs := newDocumentStore(serviceContext, cfg, logger)

	genAIClient, err := genai.NewClient(serviceContext, &genai.ClientConfig{APIKey: cfg.GoogleAPIKey})
	if err != nil {
		logger.Error("Could not create the genai client", "error", err)
		os.Exit(1)
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.QdrantHost,
		Port:   cfg.QdrantPort,
		UseTLS: cfg.QdrantUseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithUserAgent("noticebot"),
		},
	})
	if err != nil {
		logger.Error("Could not create the qdrant client", "error", err)
		os.Exit(1)
	}

	openAIClient := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))

	fetchClient := customHttpClient.New(config.CrawlFetchTimeout)

	parser := crawler.NewParser(cfg.FileURLTemplate, cfg.ContentImagePrefix)
	crawlService := crawler.NewService(
		crawler.New(fetchClient, parser, cfg.PageURLTemplate),
		crawler.NewDuplicateFilter(docs),
		docs,
	)

	ocr := textify.NewGeminiOCR(genAIClient, fetchClient, cfg.OCRModel)
	textifyService := textify.NewService(docs, ocr)

	embedder := embedding.NewGoogleEmbedder(genAIClient, cfg.EmbeddingModel)
	index := vector.NewQdrantIndex(qdrantClient)
	engine := vector.NewEngine(embedder, index)
	indexService := indexer.NewService(docs, engine)

	messages := chat.NewMessageStore(docs)
	resources := chat.NewResourceStore(docs)
	provider := llm.NewOpenAIProvider(openAIClient, cfg.OpenAIModel)
	assembler := chat.NewAssembler(messages, engine, provider).
		WithCache(vector.NewReplyCache(embedder, index))

	h := handlers.New(crawlService, textifyService, indexService, engine, index, messages, resources, assembler)
	srv := server.New(listenAddr, h)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	go srv.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
	})
	go srv.Run()

	<-stopExecution
	logger.Info("Server stopped")
}

// newDocumentStore prefers redis and falls back to the in-memory store when
// redis is unreachable, so local runs work without infrastructure.
func newDocumentStore(ctx context.Context, cfg config.Config, logger *logging.Logger) store.DocumentStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	redisStore, err := store.NewRedisStore(ctx, client)
	if err != nil {
		logger.Error("Redis store is offline, using the in-memory store", "addr", cfg.RedisAddr, "error", err)
		return store.NewInMemoryStore()
	}
	return redisStore
}
