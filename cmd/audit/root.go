package audit

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/audit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// AuditCommands represents the audit command group
	AuditCommands = &cobra.Command{
		Use:   "audit",
		Short: "Inspect the persistent audit log",
	}

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print the audit events stored in an audit directory",
		Long:  "Print the audit events stored in an audit directory, oldest first. The directory is locked by a running node, so dump the directory of a stopped node or a copy of it.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
		RunE: runDump,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	AuditCommands.AddCommand(dumpCmd)

	dumpCmd.Flags().String("audit-dir", "", util.WrapString("Directory of the audit log (same as for serve)"))
	dumpCmd.Flags().String("node", "", util.WrapString("Only print events of this node"))
	dumpCmd.Flags().StringSlice("kind", nil, util.WrapString("Only print events of these kinds (e.g. access_request_granted)"))
	dumpCmd.Flags().Bool("json", false, util.WrapString("Print one JSON object per line"))
}

func runDump(cmd *cobra.Command, _ []string) error {
	dir := viper.GetString("audit-dir")
	if dir == "" {
		return fmt.Errorf("--audit-dir is required")
	}

	// parse the kind filter
	kinds := make(map[audit.Kind]bool)
	names, _ := cmd.Flags().GetStringSlice("kind")
	for _, name := range names {
		k, err := audit.ParseKind(name)
		if err != nil {
			return err
		}
		kinds[k] = true
	}

	db, err := audit.OpenDB(audit.DBConfig{Path: dir})
	if err != nil {
		return err
	}
	defer db.Close()

	prefix := "audit/"
	if node := viper.GetString("node"); node != "" {
		prefix = audit.NodePrefix(node)
	}
	events, err := audit.ReadEvents(db, prefix)
	if err != nil {
		return err
	}

	asJSON := viper.GetBool("json")
	enc := json.NewEncoder(os.Stdout)
	for _, e := range events {
		if len(kinds) > 0 && !kinds[e.Kind] {
			continue
		}
		if asJSON {
			if err := enc.Encode(e); err != nil {
				return err
			}
			continue
		}
		fmt.Println(e.String())
	}
	return nil
}
