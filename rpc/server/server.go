package server

import (
	"fmt"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ValentinKolb/davLS/lib/locksys"
	"github.com/ValentinKolb/davLS/rpc/common"
	"github.com/ValentinKolb/davLS/rpc/serializer"
	"github.com/ValentinKolb/davLS/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverNamespace is a struct that represents a namespace in the RPC server
// It contains the lock system it encapsulates and the adapter that handles
// requests for the lock system
type serverNamespace struct {
	LockSys locksys.ILockSystem
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	// Create namespaces map
	namespaceMap := xsync.NewMapOf[uint64, serverNamespace]()

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		namespaces: namespaceMap,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	namespaces *xsync.MapOf[uint64, serverNamespace]
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(namespaceID uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		// Get appropriate namespace
		namespace, ok := s.namespaces.Load(namespaceID)

		// Case namespace does not exist -> error
		if !ok {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     "namespace not found",
			}
		} else {
			// Decode the request
			err := s.serializer.Deserialize(req, &msg)

			if err != nil {
				respMsg = common.Message{
					MsgType: common.MsgTError,
					Err:     fmt.Sprintf("failed to deserialize request: %s", err),
				}
			} else {
				// Let the adapter handle the request
				respMsg = *namespace.Adapter.Handle(&msg, namespace.LockSys)
			}
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %s", err)
			val, _ = s.serializer.Serialize(common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to serialize response: %s", err),
			})
		}
		return val
	})
}

func (s *rpcServer) init() error {

	// Init logger
	common.InitLoggers(s.config)

	// Check that at least one namespace is configured
	if len(s.config.Namespaces) == 0 {
		return fmt.Errorf("no lock namespaces configured")
	}

	// CREATE NAMESPACES

	/*
		Note: A single RPC Server can host any number of lock namespaces. Each
		namespace is a fully independent in-memory lock system, so locks taken
		in one namespace never conflict with locks in another. The following
		loop creates all the namespaces and stores them for the RPC server.
	*/

	for _, namespaceID := range s.config.Namespaces {
		if _, loaded := s.namespaces.LoadOrStore(namespaceID, serverNamespace{
			LockSys: locksys.NewMemLockSystem(),
			Adapter: NewLockSystemServerAdapter(),
		}); loaded {
			return fmt.Errorf("duplicate namespace ID: %d", namespaceID)
		}
		Logger.Infof("created in-memory lock system for namespace %d", namespaceID)
	}

	Logger.Infof("davLS setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the namespaces and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
