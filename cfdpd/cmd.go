package cfdpd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kaidokert/fsfw-sub000/std/log"
	"github.com/kaidokert/fsfw-sub000/std/utils"
	"github.com/kaidokert/fsfw-sub000/std/utils/toolutils"
	"github.com/spf13/cobra"
)

var CmdCfdpd = &cobra.Command{
	Use:     "cfdpd CONFIG-FILE",
	Short:   "CFDP Receiving Entity",
	GroupID: "run",
	Version: utils.Version,
	Args:    cobra.ExactArgs(1),
	Run:     run,
}

// ReadConfig reads the cfdp section of a yaml configuration file.
func ReadConfig(file string) (*Config, error) {
	config := struct {
		Config *Config `json:"cfdp"`
	}{
		Config: DefaultConfig(),
	}
	if err := toolutils.ReadYaml(&config, file); err != nil {
		return nil, err
	}
	config.Config.BaseDir = filepath.Dir(file)
	if err := config.Config.Parse(); err != nil {
		return nil, err
	}
	return config.Config, nil
}

func run(cmd *cobra.Command, args []string) {
	config, err := ReadConfig(args[0])
	if err != nil {
		log.Fatal(nil, "Invalid configuration", "file", args[0], "err", err)
		return
	}

	entity, err := NewEntity(config)
	if err != nil {
		log.Fatal(nil, "Unable to create entity", "err", err)
		return
	}
	if err := entity.Start(); err != nil {
		entity.Stop()
		log.Fatal(entity, "Unable to start entity", "err", err)
		return
	}

	// set up signal handler channel and wait for interrupt
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	receivedSig := <-sigChannel
	entity.Logger().Info(entity, "Received signal - exit", "signal", receivedSig)

	entity.Stop()
}
