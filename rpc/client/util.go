package client

import (
	"fmt"

	"github.com/ValentinKolb/davLS/rpc/common"
	"github.com/ValentinKolb/davLS/rpc/serializer"
	"github.com/ValentinKolb/davLS/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCLockSystem with composition pattern
type rpcClientAdapter struct {
	namespaceID uint64
	config      common.ClientConfig
	transport   transport.IRPCClientTransport
	serializer  serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a namespace ID, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// This method also checks if the response is an error response and if the type of the response is the expected type
//
// Domain errors (lock conflicts, unknown tokens) are not turned into transport
// errors here. They travel in the response message and are surfaced by the
// caller via Message.ResponseError, so remote and local lock systems report
// identical errors.
func invokeRPCRequest(namespaceID uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	// Send the request
	respBytes, err := transport.Send(namespaceID, reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp := &common.Message{}
	err = serializer.Deserialize(respBytes, resp)
	if err != nil {
		return nil, fmt.Errorf("RPC LockSystemClient - Error: %s", err)
	}

	// Check if the response is an error response
	if resp.MsgType == common.MsgTError {
		return nil, fmt.Errorf("RPC LockSystemClient - Error: %s", resp.Err)
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("RPC LockSystemClient - Unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	// Return the response
	return resp, nil
}
