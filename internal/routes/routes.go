package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PeppePc-EchoArachna/arachna-connect/internal/config"
	"github.com/PeppePc-EchoArachna/arachna-connect/internal/handlers"
	"github.com/PeppePc-EchoArachna/arachna-connect/internal/middleware"
	"github.com/PeppePc-EchoArachna/arachna-connect/internal/notifier"
	"github.com/PeppePc-EchoArachna/arachna-connect/internal/repository"
	"github.com/PeppePc-EchoArachna/arachna-connect/internal/services"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	messageRepo := repository.NewMessageRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	hub := notifier.NewHub()
	go hub.Run()

	messagingService := services.NewMessagingService(messageRepo, profileRepo, hub)
	messageHandler := handlers.NewMessageHandler(messagingService, cfg.JWTSecret)
	lifecycleHandler := handlers.NewLifecycleHandler(messagingService)

	api := app.Group("/api")

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	conversations := authProtected.Group("/conversations")
	conversations.Get("", messageHandler.ListConversations)
	conversations.Get("/:counterpartId/messages", messageHandler.GetMessages)
	conversations.Post("/:counterpartId/read", messageHandler.MarkRead)

	authProtected.Post("/messages", messageHandler.SendMessage)

	api.Use("/v1/ws", messageHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(messageHandler.HandleWebSocket))

	internal := app.Group("/internal/v1", middleware.InternalOnly(cfg.InternalAPIKey))
	internal.Put("/users/:id", lifecycleHandler.UpsertProfile)
	internal.Delete("/users/:id", lifecycleHandler.DeleteUser)
}
