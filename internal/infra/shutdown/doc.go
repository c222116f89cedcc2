// Package shutdown coordinates process termination for meterd binaries.
//
// A Stack waits for SIGINT/SIGTERM (or a cancelled context) and then
// unwinds the pushed steps, newest first, under one timeout. OnSignal
// routes other signals, SIGHUP in meterd-server, to a callback.
//
//	s := shutdown.NewStack(15*time.Second, logger)
//	s.Push("http", srv.Shutdown)
//	if err := s.Await(ctx); err != nil { ... }
package shutdown
