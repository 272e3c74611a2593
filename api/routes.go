package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/verbavista-backend/models"
)

// setupRoutes mounts the public auth endpoints and the authenticated API under /api.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, limiter *ipRateLimiter) {
	r.Route("/api", func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		// Public endpoints
		r.Group(func(r chi.Router) {
			r.Use(limiter.middleware)
			r.Post("/auth/register", handlers.authHandler.register())
			r.Post("/auth/login", handlers.authHandler.login())
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.authenticate)

			r.Get("/auth/verify", handlers.authHandler.verify())

			// Blog Post Handler endpoints
			r.Get("/blogs", handlers.blogPostHandler.getAllBlogPosts())
			r.Get("/blogs/search", handlers.blogPostHandler.searchBlogPosts())
			r.Post("/blogs", handlers.blogPostHandler.createBlogPost(""))
			r.Post("/blogs/save-draft", handlers.blogPostHandler.createBlogPost(models.StatusDraft))
			r.Post("/blogs/publish", handlers.blogPostHandler.createBlogPost(models.StatusPublished))
			r.Get("/blogs/{blogPostID}", handlers.blogPostHandler.getBlogPost())
			r.Put("/blogs/{blogPostID}", handlers.blogPostHandler.updateBlogPost())
			r.Delete("/blogs/{blogPostID}", handlers.blogPostHandler.deleteBlogPost())
			r.Get("/tags", handlers.blogPostHandler.getTags())

			// Category Handler endpoints
			r.Get("/categories", handlers.categoryHandler.getAllCategories())
			r.Post("/categories", handlers.categoryHandler.createCategory())
			r.Put("/categories/{categoryID}", handlers.categoryHandler.renameCategory())
			r.Delete("/categories/{categoryID}", handlers.categoryHandler.deleteCategory())

			// User Handler endpoints
			r.Get("/users/profile", handlers.userHandler.getProfile())
			r.Put("/users/profile", handlers.userHandler.updateProfile())
			r.Put("/users/change-password", handlers.userHandler.changePassword())
			r.Delete("/users", handlers.userHandler.deleteAccount())

			r.Post("/upload", handlers.uploadHandler.uploadImage())
		})
	})
}

// setupUploadRoutes serves files written by the local image store.
func setupUploadRoutes(r chi.Router, dir string) {
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	r.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fileServer.ServeHTTP(w, r)
	})
}
