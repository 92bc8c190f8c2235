// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"knowledge-qa-go/internal/config"
	"knowledge-qa-go/internal/handler"
	"knowledge-qa-go/internal/middleware"
	"knowledge-qa-go/internal/pipeline"
	"knowledge-qa-go/internal/repository"
	"knowledge-qa-go/internal/service"
	"knowledge-qa-go/pkg/database"
	"knowledge-qa-go/pkg/embedding"
	"knowledge-qa-go/pkg/kafka"
	"knowledge-qa-go/pkg/llm"
	"knowledge-qa-go/pkg/log"
	"knowledge-qa-go/pkg/storage"
	"knowledge-qa-go/pkg/tika"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储与 Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	docRepo := repository.NewDocumentRepository(database.DB)
	chunkRepo := repository.NewChunkRepository(database.DB)
	historyRepo := repository.NewQueryHistoryRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	synthesizer := service.NewAnswerSynthesizer(llmClient, cfg.LLM)
	documentService := service.NewDocumentService(docRepo, chunkRepo, cfg.MinIO)
	queryService := service.NewQueryService(embeddingClient, chunkRepo, synthesizer, historyRepo, cfg.RAG.TopK)

	// 6. 初始化文档导入管道 (Processor)
	processor := pipeline.NewProcessor(
		tikaClient,
		embeddingClient,
		cfg.MinIO,
		cfg.RAG,
		docRepo,
		chunkRepo,
	)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		documents := apiV1.Group("/documents")
		{
			documents.POST("/upload", handler.NewDocumentHandler(documentService).Upload)
			documents.GET("", handler.NewDocumentHandler(documentService).List)
			documents.DELETE("/:id", handler.NewDocumentHandler(documentService).Delete)
		}

		query := apiV1.Group("/query")
		{
			query.POST("", handler.NewQueryHandler(queryService).Query)
			query.GET("/history", handler.NewQueryHandler(queryService).History)
		}

		apiV1.GET("/health", handler.NewHealthHandler().Health)
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
