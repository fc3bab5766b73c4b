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

	"supporter-agent-go/internal/agent"
	"supporter-agent-go/internal/config"
	"supporter-agent-go/internal/handler"
	"supporter-agent-go/internal/intent"
	"supporter-agent-go/internal/middleware"
	"supporter-agent-go/internal/pipeline"
	"supporter-agent-go/internal/repository"
	"supporter-agent-go/internal/service"
	"supporter-agent-go/pkg/database"
	"supporter-agent-go/pkg/es"
	"supporter-agent-go/pkg/kafka"
	"supporter-agent-go/pkg/llm"
	"supporter-agent-go/pkg/log"
	"supporter-agent-go/pkg/storage"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储、ES 和 Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	profileRepo := repository.NewProfileRepository(database.DB)
	contextRepo := repository.NewContextRepository(database.DB, database.RDB)
	knowledgeRepo := repository.NewKnowledgeRepository(es.ESClient, cfg.Elasticsearch.IndexName)
	transactionRepo := repository.NewTransactionRepository(database.DB)
	researchRepo := repository.NewResearchRepository(database.DB)
	interactionRepo := repository.NewInteractionRepository(database.DB)

	// 5. 初始化 Service (依赖注入)
	var llmClient llm.Client
	if cfg.LLM.Enabled {
		llmClient = llm.NewClient(cfg.LLM)
	}
	contextService := service.NewContextService(contextRepo, profileRepo)
	knowledgeService := service.NewKnowledgeService(knowledgeRepo, cfg.Agent.TrustedDomain)
	researchService := service.NewResearchService(researchRepo, cfg.MinIO.BucketName)
	analyticsService := service.NewAnalyticsService()
	contentService := service.NewContentService(llmClient, cfg.LLM.Enabled)

	// 6. 初始化对话代理（编排器）
	personalizationAgent := agent.New(
		intent.NewClassifier(),
		contextService,
		contentService,
		knowledgeService,
		researchService,
		analyticsService,
		profileRepo,
		transactionRepo,
		agent.NewSessionStore(),
		cfg.Agent.TrustedDomain,
		cfg.Agent.HistoryLimit,
	)

	// 7. 启动后台 Kafka 消费者（分析事件落库管道）
	processor := pipeline.NewProcessor(interactionRepo)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	sessionHandler := handler.NewSessionHandler(personalizationAgent)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService, cfg.Agent.RelatedLimit)
	researchHandler := handler.NewResearchHandler(researchService)
	userHandler := handler.NewUserHandler(contextService, profileRepo, transactionRepo)
	chatHandler := handler.NewChatHandler(personalizationAgent)

	apiV1 := r.Group("/api/v1")
	{
		sessions := apiV1.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("/:sessionId", sessionHandler.GetSession)
			sessions.POST("/:sessionId/messages", sessionHandler.ProcessMessage)
			sessions.POST("/:sessionId/resume", sessionHandler.ResumeSession)
			sessions.POST("/:sessionId/flow/advance", sessionHandler.AdvanceFlow)
			sessions.DELETE("/:sessionId", sessionHandler.EndSession)
		}

		users := apiV1.Group("/users")
		{
			users.GET("/:userId/sessions", sessionHandler.ListUserSessions)
			users.GET("/:userId/profile", userHandler.GetProfile)
			users.PUT("/:userId/profile", userHandler.UpsertProfile)
			users.GET("/:userId/engagement", userHandler.ListEngagement)
			users.GET("/:userId/context", userHandler.GetContext)
			users.PUT("/:userId/context", userHandler.UpdateContext)
			users.POST("/:userId/context/merge", userHandler.MergeContext)
			users.GET("/:userId/donations/summary", userHandler.DonationSummary)
		}

		knowledge := apiV1.Group("/knowledge")
		{
			knowledge.GET("/search", knowledgeHandler.Search)
			knowledge.GET("/articles/:articleId", knowledgeHandler.GetArticle)
			knowledge.GET("/articles/:articleId/related", knowledgeHandler.Related)
		}

		research := apiV1.Group("/research")
		{
			research.GET("/featured", researchHandler.Featured)
			research.GET("/papers/:paperId", researchHandler.GetPaper)
		}
	}

	// Chat 路由 (WebSocket)
	r.GET("/chat/:sessionId", chatHandler.Handle)

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

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费者是一个循环，会在进程退出时自然结束。
	log.Info("服务已优雅关闭")
}
