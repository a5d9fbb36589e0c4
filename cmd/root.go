package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/veriscope/veriscope/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	                _
	__   _____ _ __(_)___  ___ ___  _ __   ___
	\ \ / / _ \ '__| / __|/ __/ _ \| '_ \ / _ \
	 \ V /  __/ |  | \__ \ (_| (_) | |_) |  __/
	  \_/ \___|_|  |_|___/\___\___/| .__/ \___|
	                               |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "veriscope",
	Short: "A content credibility analyzer with XP-based progression.",
	Long: LOGO + `veriscope runs articles, links, and claims through a three-stage
credibility pipeline (preliminary screening, fact-check verification, context
analysis), aggregates the stage scores into a verdict, and grades your own
credibility estimate against it. Accurate estimates earn XP and levels.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.veriscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")

}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".veriscope")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.veriscope.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("analysis.provider", "auto")
	viper.SetDefault("analysis.stage_timeout", "20s")
	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.model", "")
	viper.SetDefault("openai.endpoint", "")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "")
	viper.SetDefault("factcheck.api_key", "")
	viper.SetDefault("factcheck.language", "en")
	viper.SetDefault("news.languages", []string{"en"})
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)

}
