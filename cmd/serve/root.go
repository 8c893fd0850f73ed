package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cmdUtil "github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/audit"
	"github.com/ValentinKolb/dLock/lib/manager"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/server"
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start a dLock manager node",
		Long:    `Start a dLock manager node with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DLOCK_<flag> (e.g. DLOCK_NODE_ID=n1, DLOCK_PEERS=n2=10.0.0.2:8080)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "node-id"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Unique ID of this node (default: a random UUID)"))

	key = "peers"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of the other manager nodes in the format 'n2=10.0.0.2:8080,n3=10.0.0.3:8080'. An entry for this node itself is ignored, so all nodes may share the same list"))

	key = "resources"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of the resources hosted by this node. Resource names must be unique across the cluster"))

	key = "users"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of the users of this node (informational, reported in the status)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds of a single send to a peer and of response writes"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the node will listen (e.g. localhost:8080, /tmp/dlock.sock, ...)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the Prometheus /metrics endpoint (e.g. :9090). Empty disables metrics"))

	key = "audit-dir"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Directory of the persistent audit log. Empty keeps the audit log in the process log only"))

	key = "transport-workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 1024, cmdUtil.WrapString("Maximum number of requests processed concurrently per connection. Blocking lock requests hold a worker while they wait"))

	key = "transport-buffer-size"
	ServeCmd.PersistentFlags().Int(key, 64, cmdUtil.WrapString("The size of the pooled read buffers (in KB)"))

	key = "transport-tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 30, cmdUtil.WrapString("The keepalive interval (in seconds, only for tcp, 0 disables)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.NodeID = viper.GetString("node-id")
	if serveCmdConfig.NodeID == "" {
		serveCmdConfig.NodeID = uuid.NewString()
	}

	peers, err := cmdUtil.ParsePeers(viper.GetString("peers"))
	if err != nil {
		return err
	}
	serveCmdConfig.Peers = peers

	serveCmdConfig.Resources = cmdUtil.SplitList(viper.GetString("resources"))
	serveCmdConfig.Users = cmdUtil.SplitList(viper.GetString("users"))
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.AuditDir = viper.GetString("audit-dir")

	serveCmdConfig.LogLevel = viper.GetString("log-level")
	if !common.ValidLogLevel(serveCmdConfig.LogLevel) {
		return fmt.Errorf("invalid log level %s (expected one of debug, info, warn, error)", serveCmdConfig.LogLevel)
	}

	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint:       viper.GetString("endpoint"),
		WorkersPerConn: viper.GetInt("transport-workers-per-conn"),
		BufferSize:     viper.GetInt("transport-buffer-size") * 1024,
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
		},
	}

	return nil
}

// run starts the manager node
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(serveCmdConfig.LogLevel)

	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}
	peerTransport, err := cmdUtil.GetTransportFactory()
	if err != nil {
		return err
	}

	// audit sinks: process log, metrics and (optionally) the persistent log
	set := metrics.NewSet()
	sinks := []audit.ISink{
		audit.NewLoggerSink(),
		audit.NewMetricsSink(set, serveCmdConfig.NodeID),
	}
	if serveCmdConfig.AuditDir != "" {
		db, err := audit.OpenDB(audit.DBConfig{Path: serveCmdConfig.AuditDir})
		if err != nil {
			return err
		}
		defer db.Close()

		badgerSink := audit.NewBadgerSink(db, serveCmdConfig.NodeID)
		defer badgerSink.Close()
		sinks = append(sinks, badgerSink)
	}

	node := manager.NewNode(serveCmdConfig.NodeID, audit.Multi(sinks...))
	serv := server.NewRPCServer(*serveCmdConfig, node, t, s, peerTransport)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serv.Serve(ctx) })
	if serveCmdConfig.MetricsEndpoint != "" {
		g.Go(func() error { return serveMetrics(ctx, serveCmdConfig.MetricsEndpoint, set) })
	}
	return g.Wait()
}

// serveMetrics exposes the node metrics and the process metrics in Prometheus format
func serveMetrics(ctx context.Context, endpoint string, set *metrics.Set) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		set.WritePrometheus(w)
		metrics.WriteProcessMetrics(w)
	})
	srv := &http.Server{Addr: endpoint, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	cmdUtil.Logger.Infof("Serving metrics on %s/metrics", endpoint)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
