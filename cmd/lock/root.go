package lock

import (
	"github.com/ValentinKolb/davLS/cmd/util"
	"github.com/ValentinKolb/davLS/lib/locksys"
	"github.com/ValentinKolb/davLS/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcLockSys locksys.ILockSystem

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:               "lock",
		Short:             "Perform lock operations",
		PersistentPreRunE: setupLockClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the lock command
	util.SetupRPCClientFlags(LockCommands)

	// Set default namespace ID for lock operations
	LockCommands.PersistentFlags().Int("namespace", 100, util.WrapString("ID of the lock namespace to connect to"))

	// Add subcommands
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)
	LockCommands.AddCommand(refreshCmd)
	LockCommands.AddCommand(checkCmd)
	LockCommands.AddCommand(discoverCmd)
	LockCommands.AddCommand(deleteCmd)
	LockCommands.AddCommand(perfTestCmd)
}

// setupLockClient initializes the lock system client
func setupLockClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	namespaceID := util.GetNamespaceID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the lock system client
	rpcLockSys, err = client.NewRPCLockSystem(
		namespaceID,
		*config,
		t,
		s,
	)

	return err
}
