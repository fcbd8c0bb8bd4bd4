package commands

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zialiel/zialiel/src/committee"
	"github.com/zialiel/zialiel/src/common"
	"github.com/zialiel/zialiel/src/consensus"
	"github.com/zialiel/zialiel/src/crypto/keys"
	"github.com/zialiel/zialiel/src/dag"
	"github.com/zialiel/zialiel/src/node"
	"github.com/zialiel/zialiel/src/service"
)

//NewRunCmd returns the command that starts a Zialiel node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runZialiel,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runZialiel(cmd *cobra.Command, args []string) error {
	logger := _config.Logger()

	if _config.LogFile != "" {
		pathMap := lfshook.PathMap{}
		for _, level := range logrus.AllLevels {
			pathMap[level] = _config.LogFile
		}
		logger.Logger.Hooks.Add(lfshook.NewHook(
			pathMap,
			logger.Logger.Formatter,
		))
	}

	scheme, err := keys.SchemeByName(_config.SigScheme)
	if err != nil {
		return err
	}

	// Read the private key
	keyfile := keys.NewSimpleKeyfile(_config.Keyfile())

	privKey, err := keyfile.ReadKey()
	if err != nil {
		return fmt.Errorf("Reading private key: %s", err)
	}

	pubDump, err := ioutil.ReadFile(_config.PubKeyfile())
	if err != nil {
		return fmt.Errorf("Reading public key: %s", err)
	}

	pubKey, err := common.DecodeFromString(strings.TrimSpace(string(pubDump)))
	if err != nil {
		return fmt.Errorf("Decoding public key: %s", err)
	}

	// Read the committee
	jsonCommittee := committee.NewJSONCommittee(_config.DataDir)

	members, err := jsonCommittee.Members()
	if err != nil {
		return fmt.Errorf("Reading committee.json: %s", err)
	}

	if len(members) < 1 {
		return fmt.Errorf("committee.json should define at least one member")
	}

	// Open the store
	var store dag.Store
	if _config.Store {
		if _config.Bootstrap {
			store, err = dag.LoadBadgerStore(_config.DatabaseDir)
		} else {
			store, err = dag.NewBadgerStore(_config.DatabaseDir)
		}
		if err != nil {
			return fmt.Errorf("Opening badger store: %s", err)
		}
	} else {
		store = dag.NewInmemStore()
	}

	validator := node.NewValidator(_config.Moniker, scheme, privKey, pubKey)

	state := consensus.NewState()

	n := node.NewNode(validator, store, committee.NewCommittee(members), state, logger)

	if _config.Bootstrap {
		n.Bootstrap()
	}

	if !_config.NoService {
		serviceServer := service.NewService(_config.ServiceAddr, n, logger)
		go serviceServer.Serve()
	}

	n.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Optional file to duplicate log output to")
	cmd.Flags().String("moniker", _config.Moniker, "Account name of this validator")
	cmd.Flags().String("sig-scheme", _config.SigScheme, "Signature scheme (ML-DSA-65 or secp256k1)")

	// Service
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP API service")
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")
	cmd.Flags().Bool("bootstrap", _config.Bootstrap, "Load from database")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	logFields := logrus.Fields{
		"DataDir":     _config.DataDir,
		"ServiceAddr": _config.ServiceAddr,
		"NoService":   _config.NoService,
		"LogLevel":    _config.LogLevel,
		"Moniker":     _config.Moniker,
		"SigScheme":   _config.SigScheme,
		"Store":       _config.Store,
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
		logFields["Bootstrap"] = _config.Bootstrap
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/zialiel.toml (.json, .yaml also work)
	viper.SetConfigName("zialiel")
	viper.AddConfigPath(_config.DataDir)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
