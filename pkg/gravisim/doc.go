// Package gravisim embeds the gravity simulation as a library. An App owns
// one configuration and presents it through one frontend at a time: a
// desktop window, the controlling terminal, an SSH server or a PNG
// snapshot.
//
// # Basic Usage
//
//	app, err := gravisim.New("/path/to/gravisim.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := app.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Configuration Sources
//
//   - Disk file: [New] loads from a path and can watch it for changes
//   - Embedded FS: [NewFromFS] loads from an [io/fs.FS]
//   - io.Reader: [NewFromReader] for generated configurations
//
// # Frontends
//
// [App.Run], [App.RunTerminal] and [App.Serve] block until ctx is
// cancelled, the user quits or [App.Stop] is called. Only one of them may
// run at a time. [App.Snapshot] renders a single frame and may be called
// at any time.
//
// # Overlay Scripts
//
// When the configuration names a script, it is loaded into a sandboxed
// Lua runtime and its gravisim_startup, gravisim_step, gravisim_draw and
// gravisim_shutdown functions are called by the scene. A script that keeps
// failing is switched off by a circuit breaker and retried later.
//
// # Error Handling
//
// Frame errors never stop a frontend. They are reported through
// [ErrorHandler] as [*CategorizedError] values:
//
//	app.SetErrorHandler(func(err error) {
//		log.Printf("gravisim: %v", err)
//	})
//
// The handler is called asynchronously; do not block in it.
package gravisim
