package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kubelearn/kubesim/pkg/metrics"
)

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Expose the session's cluster gauges over HTTP",
	Long: `Refresh the Prometheus gauges from the session snapshot and serve
them on /metrics until interrupted. Useful for graphing a lesson's cluster
while reconcile ticks are issued from another terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		sess, store, _, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		metrics.Observe(sess.State())

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		fmt.Printf("serving metrics on %s/metrics\n", addr)
		return http.ListenAndServe(addr, mux)
	},
}

func init() {
	serveMetricsCmd.Flags().String("addr", "localhost:9090", "Listen address")
	rootCmd.AddCommand(serveMetricsCmd)
}
