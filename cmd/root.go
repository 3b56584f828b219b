package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/davLS/cmd/lock"
	"github.com/ValentinKolb/davLS/cmd/serve"
	"github.com/ValentinKolb/davLS/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "davls",
		Short: "in-memory WebDAV lock service",
		Long: fmt.Sprintf(`davLS (v%s)

An in-memory hierarchical lock service written in Go, implementing
WebDAV locking semantics (shared/exclusive locks, lock depth and
opaque lock tokens) behind a pluggable RPC layer.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of davLS",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("davLS v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
