package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ftl/tmv71adapter/adapter"
	"github.com/ftl/tmv71adapter/tmv71"
)

var version = "development"

var rootFlags = struct {
	localAddress *string
	device       *string
	baudRate     *int
	timeout      *time.Duration
	retry        *int
	traceHamlib  *bool
	traceSerial  *bool
}{}

var rootCmd = &cobra.Command{
	Use:     "tmv71adapter",
	Short:   "An adapter to connect Hamlib clients to a Kenwood TM-V71(A) over its serial port.",
	Version: version,
	Run:     root,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootFlags.localAddress = rootCmd.PersistentFlags().StringP("listen", "l", "localhost:4532", "The local address to listen on for Hamlib clients")
	rootFlags.device = rootCmd.PersistentFlags().StringP("device", "d", "/dev/ttyUSB0", "The serial device of the radio")
	rootFlags.baudRate = rootCmd.PersistentFlags().IntP("baud", "b", 9600, "The baud rate of the radio's serial port")
	rootFlags.timeout = rootCmd.PersistentFlags().Duration("timeout", 1*time.Second, "The timeout for a serial exchange")
	rootFlags.retry = rootCmd.PersistentFlags().Int("retry", 3, "How often a timed-out serial exchange is retried")
	rootFlags.traceHamlib = rootCmd.PersistentFlags().Bool("trace_hamlib", false, "Trace the hamlib network traffic")
	rootFlags.traceSerial = rootCmd.PersistentFlags().Bool("trace_serial", false, "Trace the serial traffic")
}

func root(cmd *cobra.Command, args []string) {
	setupLogging()
	log.Info().Str("version", version).Msg("TM-V71 Hamlib Adapter")

	trx, err := tmv71.OpenSerial(serialConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open the radio")
	}
	defer trx.Close()

	done := make(chan struct{})
	a, err := adapter.Listen(*rootFlags.localAddress, tmv71.New(trx), done, *rootFlags.traceHamlib, version)
	if err != nil {
		log.Fatal().Err(err).Msg("starting the adapter failed")
	}
	log.Info().Str("address", *rootFlags.localAddress).Str("device", *rootFlags.device).Msg("listening")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		close(done)
	}()

	a.Wait()
}

func setupLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *rootFlags.traceHamlib || *rootFlags.traceSerial {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func serialConfig() tmv71.SerialConfig {
	config := tmv71.DefaultSerialConfig(*rootFlags.device)
	config.BaudRate = *rootFlags.baudRate
	config.Timeout = *rootFlags.timeout
	config.Retry = *rootFlags.retry
	return config
}
