// Package server implements the RPC server for the lock service. It provides
// an adapter for handling RPC requests against the lock system, along with the
// core server implementation that manages namespaces and request routing.
//
// The package focuses on:
//   - Server-side RPC request handling for all lock operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Hosting multiple independent lock namespaces in a single server
//   - Operation counters exported in Prometheus format
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a
//     locksys.ILockSystem.
//
//   - NewLockSystemServerAdapter: Factory function creating an adapter for lock
//     operations, translating RPC requests to locksys.ILockSystem method calls.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Namespaces: []uint64{100, 200},
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	  Transport: common.ServerTransportConfig{
//	    Endpoint: "0.0.0.0:8080",
//	  },
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Each namespace is a fully independent in-memory lock system. Locks taken in
// one namespace never conflict with locks taken in another, which allows a
// single server to serve multiple WebDAV trees or applications side by side.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	The Serve method is not thread-safe and should be called only once.
package server
