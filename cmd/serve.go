package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veriscope/veriscope/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the veriscope HTTP API",
	Long: `Start an HTTP server exposing the analysis pipeline, user progression,
cached fact-checked news, and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		runner, err := buildRunner(cmd)
		if err != nil {
			return err
		}
		sources, err := buildNewsSources(cmd)
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			addr = viper.GetString("server.listen")
		}
		user, _ := cmd.Flags().GetString("username")
		if user == "" {
			user = viper.GetString("server.username")
		}
		pass, _ := cmd.Flags().GetString("password")
		if pass == "" {
			pass = viper.GetString("server.password")
		}

		srv := server.New(db, runner, sources, user, pass)
		return srv.Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "HTTP listen address (default: server.listen from config, :8080)")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	serveCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: veriscope.sqlite in CWD)")
}
