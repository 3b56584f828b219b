package server

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/davLS/lib/locksys"
	"github.com/ValentinKolb/davLS/rpc/common"
)

func NewLockSystemServerAdapter() IRPCServerAdapter {
	return &lockSysServerAdapterImpl{}
}

type lockSysServerAdapterImpl struct{}

func (adapter *lockSysServerAdapterImpl) Handle(req *common.Message, ls locksys.ILockSystem) *common.Message {
	// Check for nil lock system
	if ls == nil {
		return common.NewErrorResponse("handler: lock system is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTLockAcquire:
		lock, err := ls.Lock(req.Path, req.Owner, requestTimeout(req), req.Shared, req.Deep)
		countResult(req.MsgType, err)
		return common.NewAcquireResponse(lock, err)
	case common.MsgTLockRelease:
		err := ls.Unlock(req.Path, req.Token)
		countResult(req.MsgType, err)
		return common.NewReleaseResponse(err)
	case common.MsgTLockRefresh:
		lock, err := ls.Refresh(req.Path, req.Token, requestTimeout(req))
		countResult(req.MsgType, err)
		return common.NewRefreshResponse(lock, err)
	case common.MsgTLockCheck:
		err := ls.Check(req.Path, req.Tokens)
		countResult(req.MsgType, err)
		return common.NewCheckResponse(err)
	case common.MsgTLockDiscover:
		locks, err := ls.Discover(req.Path)
		countResult(req.MsgType, err)
		return common.NewDiscoverResponse(locks, err)
	case common.MsgTLockDelete:
		err := ls.Delete(req.Path)
		countResult(req.MsgType, err)
		return common.NewDeleteResponse(err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC LockSystemAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}

// requestTimeout converts the timeout field of a request (seconds, 0 meaning
// unbounded) into a duration
func requestTimeout(req *common.Message) time.Duration {
	return time.Duration(req.Timeout) * time.Second
}
