package client

import (
	"time"

	"github.com/ValentinKolb/davLS/lib/locksys"
	"github.com/ValentinKolb/davLS/rpc/common"
	"github.com/ValentinKolb/davLS/rpc/serializer"
	"github.com/ValentinKolb/davLS/rpc/transport"
)

// NewRPCLockSystem creates a new RPC ILockSystem
// The function takes a namespace ID, a config, a transport and a serializer as parameters
// It returns a locksys.ILockSystem and an error
func NewRPCLockSystem(
	namespaceID uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (locksys.ILockSystem, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC lock system
	l := rpcLockSystem{
		rpcClientAdapter{
			namespaceID: namespaceID,
			config:      config,
			transport:   transport,
			serializer:  serializer,
		},
	}

	// Return the RPC lock system
	return &l, nil
}

type rpcLockSystem struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the locksys package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcLockSystem) Lock(path string, owner []byte, timeout time.Duration, shared, deep bool) (locksys.Lock, error) {
	req := common.NewAcquireRequest(path, owner, timeoutSeconds(timeout), shared, deep)
	resp, err := invokeRPCRequest(i.namespaceID, req, i.transport, i.serializer)
	if err != nil {
		return locksys.Lock{}, err
	}
	if err := resp.ResponseError(); err != nil {
		return locksys.Lock{}, err
	}
	return *resp.Lock, nil
}

func (i *rpcLockSystem) Unlock(path, token string) error {
	req := common.NewReleaseRequest(path, token)
	resp, err := invokeRPCRequest(i.namespaceID, req, i.transport, i.serializer)
	if err != nil {
		return err
	}
	return resp.ResponseError()
}

func (i *rpcLockSystem) Refresh(path, token string, timeout time.Duration) (locksys.Lock, error) {
	req := common.NewRefreshRequest(path, token, timeoutSeconds(timeout))
	resp, err := invokeRPCRequest(i.namespaceID, req, i.transport, i.serializer)
	if err != nil {
		return locksys.Lock{}, err
	}
	if err := resp.ResponseError(); err != nil {
		return locksys.Lock{}, err
	}
	return *resp.Lock, nil
}

func (i *rpcLockSystem) Check(path string, tokens []string) error {
	req := common.NewCheckRequest(path, tokens)
	resp, err := invokeRPCRequest(i.namespaceID, req, i.transport, i.serializer)
	if err != nil {
		return err
	}
	return resp.ResponseError()
}

func (i *rpcLockSystem) Discover(path string) ([]locksys.Lock, error) {
	req := common.NewDiscoverRequest(path)
	resp, err := invokeRPCRequest(i.namespaceID, req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	if err := resp.ResponseError(); err != nil {
		return nil, err
	}
	return resp.Locks, nil
}

func (i *rpcLockSystem) Delete(path string) error {
	req := common.NewDeleteRequest(path)
	resp, err := invokeRPCRequest(i.namespaceID, req, i.transport, i.serializer)
	if err != nil {
		return err
	}
	return resp.ResponseError()
}

// timeoutSeconds converts a timeout duration into the whole seconds sent over
// the wire. Zero means unbounded, sub-second timeouts are rounded up so a
// bounded request never turns into an unbounded lock.
func timeoutSeconds(timeout time.Duration) uint64 {
	if timeout <= 0 {
		return 0
	}
	secs := uint64(timeout / time.Second)
	if timeout%time.Second != 0 {
		secs++
	}
	return secs
}
