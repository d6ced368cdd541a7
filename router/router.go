package router

import (
	"net/http"
	"strings"

	"promptregistry/config"
	promptHandler "promptregistry/internal/prompt"
	"promptregistry/internal/prompt/service"
	"promptregistry/middleware"
)

func Setup(cfg *config.Config, promptService *service.PromptService) http.Handler {
	mux := http.NewServeMux()
	prefix := strings.TrimRight(cfg.APIPrefix, "/")

	prompts := promptHandler.NewPromptHandler(promptService)
	integration := promptHandler.NewIntegrationHandler(promptService)
	auth := middleware.AuthMiddleware(cfg.JWTSecret)

	base := prefix + "/prompts"
	mux.Handle("POST "+base, auth(http.HandlerFunc(prompts.CreatePrompt)))
	mux.HandleFunc("GET "+base, prompts.GetAllActivePrompts)
	mux.HandleFunc("GET "+base+"/{name}", prompts.GetPromptByName)
	mux.Handle("PUT "+base+"/{name}", auth(http.HandlerFunc(prompts.UpdatePrompt)))
	mux.Handle("DELETE "+base+"/{name}", auth(http.HandlerFunc(prompts.DeletePrompt)))
	// id/{id}, category/{category} and {name}/versions
	mux.HandleFunc("GET "+base+"/{first}/{second}", prompts.GetPromptSubresource)

	// AI integration
	mux.HandleFunc("GET "+prefix+"/integration/prompts/{name}", integration.GetCurrentPrompt)
	mux.HandleFunc("GET "+prefix+"/integration/health", integration.Health)

	mux.HandleFunc("GET /health", integration.Ready)

	return middleware.RequestLogger(middleware.CORSMiddleware(cfg.CORSAllowedOrigin)(mux))
}
