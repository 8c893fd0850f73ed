package manage

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/manager"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	rpcClient manager.IResourceManager
	requester string

	// ManageCommands represents the manage command group
	ManageCommands = &cobra.Command{
		Use:               "manage",
		Short:             "Enable or disable resources",
		PersistentPreRunE: setupManageClient,
	}

	enableCmd = &cobra.Command{
		Use:   "enable [resource]",
		Short: "Enable a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return manage(args[0], lockmgr.ManageEnable)
		},
	}

	disableCmd = &cobra.Command{
		Use:   "disable [resource]",
		Short: "Disable a resource",
		Long:  "Disable a resource. Queued requests are denied, and the command waits until all current holders released their access.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return manage(args[0], lockmgr.ManageDisable)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	ManageCommands.AddCommand(enableCmd)
	ManageCommands.AddCommand(disableCmd)

	util.SetupRPCClientFlags(ManageCommands)
	ManageCommands.PersistentFlags().StringVar(&requester, "requester", "", util.WrapString("Requester ID of the administrator (default: a random UUID). A disable by a requester that holds access to the resource is denied"))
}

func setupManageClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	rpcClient, err = util.NewClient()
	return err
}

func manage(resource string, kind lockmgr.ManagementKind) error {
	if requester == "" {
		requester = uuid.NewString()
	}

	granted, reason, err := rpcClient.RequestManagement(context.Background(), requester, resource, kind)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %v", kind, resource, err)
	}
	if !granted {
		fmt.Printf("granted=false, reason=%s\n", reason)
		return nil
	}
	fmt.Println("granted=true")
	return nil
}
