package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmahler/bugtrack/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bug-tracking API server",
	Long:  "Start an HTTP server that exposes the bug API under /api.\nBy default it listens on port 8080. Use --port to change it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		port := viper.GetInt("port")
		addr := fmt.Sprintf(":%d", port)

		srv := api.NewServer(s)
		slog.Info("serving bug API", "addr", addr)
		return http.ListenAndServe(addr, srv.Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}
