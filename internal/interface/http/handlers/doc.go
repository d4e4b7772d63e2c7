// Package handlers contains HTTP handler interfaces, implementations, and middleware.
//
// This package provides:
//   - Health check interfaces and implementations
//   - Reusable middleware components
//   - Authentication middleware for the admin surface
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("warehouse", handlers.NewWarehouseCheck(conn))
//	checker.AddCheck("schema_registry", handlers.NewSchemaRegistryCheck(registry, time.Hour))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Printf("health check failed: %s", status.Message)
//	}
//
// # Middleware
//
// The package provides several reusable middleware components:
//
//	// API key authentication (admin schema refresh)
//	auth := handlers.NewAPIKeyAuth("X-Admin-Token", []string{"secret-key"})
//	protected := auth.Middleware(refreshHandler)
//
//	// Request deadline
//	withTimeout := handlers.TimeoutMiddleware(25 * time.Second)(myHandler)
//
//	// Chain multiple middleware
//	handler := handlers.ChainHandler(
//	    myHandler,
//	    handlers.SecurityHeadersMiddleware,
//	    auth.Middleware,
//	)
//
// When implementing health checks:
//   - Use timeouts to prevent slow checks from blocking the response
//   - Include critical dependencies like the warehouse connection
//   - Keep checks fast (< 1 second ideally)
package handlers
