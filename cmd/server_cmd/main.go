package main

import (
	"fmt"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/TEENet-io/faucet-go/cmd"
	"github.com/TEENet-io/faucet-go/logconfig"
	"github.com/TEENet-io/faucet-go/registry"
	"github.com/TEENet-io/faucet-go/reservation"
)

const (
	ENV_CONFIG_FILE_PATH = "FAUCET_CONFIG"
	DOT_ENV_FILE         = ".env"
)

func main() {
	// .env goes first, real env vars win over it
	if cmd.FileExists(DOT_ENV_FILE) {
		if err := godotenv.Load(DOT_ENV_FILE); err != nil {
			fmt.Printf("Error loading %s: %s\n", DOT_ENV_FILE, err)
			return
		}
	}

	// Tool to read environment variables
	viper.AutomaticEnv()
	setDefaults()

	// Accessing an environment variable of configuration file location.
	// The file is optional, everything can come from env vars.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	if _config_file != "" {
		fmt.Printf("Faucet server configuration file = %s\n", _config_file)
		if !cmd.FileExists(_config_file) {
			fmt.Printf("Faucet server configuration file not found: %s\n", _config_file)
			return
		}
		if !initializeViper(_config_file) {
			return
		}
	}

	logconfig.ConfigLogger(viper.GetString("LOG_LEVEL"))

	// Make the configuration
	fsc := PrepareFaucetServerConfig()
	if fsc == nil {
		fmt.Printf("Error loading faucet server configuration\n")
		return
	}

	fmt.Println("Starting faucet server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartFaucetServerAndWait(fsc)
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

func setDefaults() {
	viper.SetDefault("HTTP_IP", "0.0.0.0")
	viper.SetDefault("HTTP_PORT", cmd.DEFAULT_HTTP_PORT)
	viper.SetDefault("RATE_LIMIT_WINDOW", reservation.DefaultWindow)
	viper.SetDefault("SWEEP_SCHEDULE", reservation.DefaultSweepSchedule)
	viper.SetDefault("RESERVATION_BACKEND", cmd.BackendMemory)
	viper.SetDefault("CONFIRM_MAX_ATTEMPTS", 6)
	viper.SetDefault("CONFIRM_INTERVAL", "5s")
	viper.SetDefault("BURST_RPS", 0)
	viper.SetDefault("BURST_SIZE", 5)
	viper.SetDefault("DB_FILE_PATH", "faucet.db")
	viper.SetDefault("JOURNAL_RETENTION", "720h")
}

// PrepareFaucetServerConfig reads configuration variables and returns a FaucetServerConfig.
func PrepareFaucetServerConfig() *cmd.FaucetServerConfig {

	// *** prepare objects that aren't string type ***

	// TRUSTED_PROXIES is a list in config files and "a,b" in env vars.
	var proxies []string
	if raw, ok := viper.Get("TRUSTED_PROXIES").(string); ok {
		proxies = cmd.SplitList(raw)
	} else {
		proxies = viper.GetStringSlice("TRUSTED_PROXIES")
	}

	// Asset table, only config files can carry it.
	var assets []registry.AssetConfig
	if viper.IsSet("assets") {
		if err := viper.UnmarshalKey("assets", &assets); err != nil {
			logger.Errorf("invalid assets table: %v", err)
			return nil
		}
	}

	// *** end of preparing objects ***

	return &cmd.FaucetServerConfig{
		// Http side
		HttpIp:         viper.GetString("HTTP_IP"),
		HttpPort:       cmd.ParseHttpPort(viper.GetString("HTTP_PORT")),
		TrustedProxies: proxies,
		BurstRPS:       viper.GetFloat64("BURST_RPS"),
		BurstSize:      viper.GetInt("BURST_SIZE"),
		// admission side
		RateLimitWindow:    viper.GetDuration("RATE_LIMIT_WINDOW"),
		SweepSchedule:      viper.GetString("SWEEP_SCHEDULE"),
		ReservationBackend: viper.GetString("RESERVATION_BACKEND"),
		RedisAddr:          viper.GetString("REDIS_ADDR"),
		RedisPassword:      viper.GetString("REDIS_PASSWORD"),
		RedisDb:            viper.GetInt("REDIS_DB"),
		StatsEnabled:       viper.GetBool("STATS_ENABLED"),
		// confirmation side
		ConfirmMaxAttempts: viper.GetInt("CONFIRM_MAX_ATTEMPTS"),
		ConfirmInterval:    viper.GetDuration("CONFIRM_INTERVAL"),
		// journal side
		DbFilePath:       viper.GetString("DB_FILE_PATH"),
		JournalRetention: viper.GetDuration("JOURNAL_RETENTION"),
		// ledger side
		ChainKind:            viper.GetString("CHAIN_KIND"),
		LcdUrl:               viper.GetString("LCD_URL"),
		Mnemonic:             viper.GetString("MNEMONIC"),
		ChainId:              viper.GetString("CHAIN_ID"),
		Bech32Prefix:         viper.GetString("BECH32_PREFIX"),
		GasPrice:             viper.GetString("GAS_PRICE"),
		GasLimit:             viper.GetUint64("GAS_LIMIT"),
		EthRpcUrl:            viper.GetString("ETH_RPC_URL"),
		EthCoreAccountPriv:   viper.GetString("ETH_CORE_ACCOUNT_PRIV"),
		AptosNetwork:         viper.GetString("APTOS_NETWORK"),
		AptosRpcUrl:          viper.GetString("APTOS_RPC_URL"),
		AptosCoreAccountPriv: viper.GetString("APTOS_CORE_ACCOUNT_PRIV"),

		Assets: assets,
	}
}
