package main

import (
	"flag"
	"fmt"

	"github.com/iwvelando/isolation-scheme/internal/config"
	"github.com/iwvelando/isolation-scheme/internal/logging"
	"github.com/iwvelando/isolation-scheme/internal/scheme"
	"github.com/iwvelando/isolation-scheme/pkg/constants"
	"github.com/iwvelando/isolation-scheme/pkg/output"
	"github.com/iwvelando/isolation-scheme/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, yaml")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	results, err := scheme.BuildSchemes(logger, *conf)
	if err != nil {
		logger.Fatal("failed to build isolation schemes",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(results)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(results)
	case constants.OutputFormatYAML:
		err = output.YAMLFormat(results)
	}
	if err != nil {
		logger.Fatal("failed to write schemes",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
