// Package app provides application initialization and lifecycle management
// for the CivicPulse server. It wires configuration, logging, observability,
// the archive store, the run pipeline, the services layer and the HTTP
// transport together, and handles graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//  1. Load configuration from environment and files
//  2. Initialize logging and OpenTelemetry
//  3. Open the archive store and start the WebSocket hub
//  4. Build the run pipeline and the services on top of it
//  5. Set up HTTP routes and middleware
//  6. Configure and start the HTTP server
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM signals to ensure active requests
// are completed, in-flight analysis runs are cancelled, WebSocket
// connections are closed cleanly and the archive store is flushed.
//
// All initialization errors are returned to the caller. The app does not
// call os.Exit() directly, allowing the main function to control the exit
// process.
package app
