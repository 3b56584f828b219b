package lock

import (
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/davLS/lib/locksys"
	"github.com/spf13/cobra"
)

var (
	acquireTimeout uint64
	acquireShared  bool
	acquireDeep    bool
	acquireOwner   string
	refreshTimeout uint64

	acquireCmd = &cobra.Command{
		Use:   "acquire [path]",
		Short: "Acquire a lock on a path",
		Long:  "Acquire a lock on a path. On success the opaque lock token is printed, on conflict the blocking lock is shown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			lock, err := rpcLockSys.Lock(
				path,
				[]byte(acquireOwner),
				time.Duration(acquireTimeout)*time.Second,
				acquireShared,
				acquireDeep,
			)
			if conflict, ok := locksys.AsConflict(err); ok {
				fmt.Printf("acquired=false, conflict=true\n")
				printLock("blocking ", conflict.Lock)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to acquire lock: %v", err)
			}

			fmt.Printf("acquired=true\n")
			printLock("", lock)
			return nil
		},
	}

	releaseCmd = &cobra.Command{
		Use:   "release [path] [token]",
		Short: "Release a previously acquired lock",
		Long:  "Release a lock using the path and lock token. The token is the urn:uuid string returned by the acquire command.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, token := args[0], args[1]

			err := rpcLockSys.Unlock(path, token)
			if errors.Is(err, locksys.ErrTokenNotFound) {
				fmt.Printf("released=false, reason=token not found\n")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to release lock: %v", err)
			}

			fmt.Printf("released=true\n")
			return nil
		},
	}

	refreshCmd = &cobra.Command{
		Use:   "refresh [path] [token]",
		Short: "Refresh the timeout of a lock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, token := args[0], args[1]

			lock, err := rpcLockSys.Refresh(path, token, time.Duration(refreshTimeout)*time.Second)
			if errors.Is(err, locksys.ErrTokenNotFound) {
				fmt.Printf("refreshed=false, reason=token not found\n")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to refresh lock: %v", err)
			}

			fmt.Printf("refreshed=true\n")
			printLock("", lock)
			return nil
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check [path] [token...]",
		Short: "Check if a path may be accessed with the given tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, tokens := args[0], args[1:]

			err := rpcLockSys.Check(path, tokens)
			if conflict, ok := locksys.AsConflict(err); ok {
				fmt.Printf("allowed=false\n")
				printLock("blocking ", conflict.Lock)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to check path: %v", err)
			}

			fmt.Printf("allowed=true\n")
			return nil
		},
	}

	discoverCmd = &cobra.Command{
		Use:   "discover [path]",
		Short: "List all locks that affect a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			locks, err := rpcLockSys.Discover(path)
			if err != nil {
				return fmt.Errorf("failed to discover locks: %v", err)
			}

			fmt.Printf("locks=%d\n", len(locks))
			for _, lock := range locks {
				printLock("", lock)
			}
			return nil
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete [path]",
		Short: "Remove all locks on a path and its subtree",
		Long:  "Remove all locks on a path and everything below it, mirroring the deletion of the resource itself.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if err := rpcLockSys.Delete(path); err != nil {
				return fmt.Errorf("failed to delete locks: %v", err)
			}

			fmt.Printf("deleted=true\n")
			return nil
		},
	}
)

func init() {
	// Add flags specific to acquire
	acquireCmd.Flags().Uint64Var(&acquireTimeout, "timeout", 30, "Lock timeout in seconds (0 for no timeout)")
	acquireCmd.Flags().BoolVar(&acquireShared, "shared", false, "Acquire a shared lock instead of an exclusive one")
	acquireCmd.Flags().BoolVar(&acquireDeep, "deep", false, "Acquire a deep lock covering the whole subtree")
	acquireCmd.Flags().StringVar(&acquireOwner, "owner", "", "Opaque owner descriptor stored with the lock")

	// Add flags specific to refresh
	refreshCmd.Flags().Uint64Var(&refreshTimeout, "timeout", 30, "New lock timeout in seconds (0 for no timeout)")
}

// printLock prints one lock in the key=value style used by all lock commands
func printLock(prefix string, lock locksys.Lock) {
	mode := "exclusive"
	if lock.Shared {
		mode = "shared"
	}
	depth := "0"
	if lock.Deep {
		depth = "infinity"
	}
	timeout := "none"
	if lock.Timeout > 0 {
		timeout = fmt.Sprintf("%s (expires %s)", lock.Timeout, lock.TimeoutAt.Format(time.RFC3339))
	}
	fmt.Printf("%stoken=%s, path=%s, mode=%s, depth=%s, timeout=%s, owner=%s\n",
		prefix, lock.Token, lock.Path, mode, depth, timeout, lock.Owner)
}
