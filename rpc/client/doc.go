// Package client implements the RPC client for the lock service. It provides
// an implementation of the locksys.ILockSystem interface that communicates
// with remote servers via RPC.
//
// The package focuses on:
//   - Transparent RPC access to remote lock systems
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCLockSystem: Factory function that creates a client implementing the
//     locksys.ILockSystem interface. This client forwards all operations to remote
//     servers via the configured transport layer. Lock conflicts and unknown
//     tokens are surfaced as the same typed errors a local lock system returns,
//     so callers can switch between local and remote lock systems without
//     changing their error handling.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:5000"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create the lock system client
//	ls, _ := client.NewRPCLockSystem(1, config, tcp.NewTCPClientTransport(), serializer)
//
//	// Use the lock system
//	lock, err := ls.Lock("/docs/report.txt", []byte("alice"), time.Hour, false, false)
//	if err == nil {
//	  defer ls.Unlock("/docs/report.txt", lock.Token)
//	}
//
// Performance Considerations:
//
//   - Lock messages are small, so a single connection per endpoint is usually
//     the most efficient configuration.
//
//   - The choice of serializer significantly affects performance. The binary
//     serializer provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
