//go:build windows
// +build windows

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/ftl/tmv71adapter/adapter"
	"github.com/ftl/tmv71adapter/tmv71"
)

// see https://cs.opensource.google/go/x/sys/+/0f9fa26a:windows/svc/example/install.go

const serviceName = "tmv71adapter"

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Run the TM-V71 adapter as Windows service (must not be used on the command line)",
	Run:   service,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the TM-V71 adapter as Windows service",
	Run:   install,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the Windows service",
	Run:   uninstall,
}

func init() {
	rootCmd.AddCommand(serviceCmd, installCmd, uninstallCmd)
}

func service(cmd *cobra.Command, args []string) {
	setupLogging()
	log.Info().Str("version", version).Msg("TM-V71 Hamlib Adapter")

	runningAsService, err := svc.IsWindowsService()
	if !runningAsService || err != nil {
		log.Fatal().Msg("not running as Windows service, do not use the 'service' command on the command line!")
	}
	log.Info().Msg("running as Windows service")

	err = svc.Run(serviceName, new(serviceHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("running the service failed")
	}
}

func install(cmd *cobra.Command, args []string) {
	setupLogging()
	log.Info().Str("version", version).Msg("installing tmv71adapter as Windows service")

	serviceFilename, err := exePath()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot find the service executable")
	}

	serviceArgs := []string{
		"service",
		"-l", *rootFlags.localAddress,
		"-d", *rootFlags.device,
		"-b", strconv.Itoa(*rootFlags.baudRate),
	}
	if *rootFlags.traceHamlib {
		serviceArgs = append(serviceArgs, "--trace_hamlib")
	}
	if *rootFlags.traceSerial {
		serviceArgs = append(serviceArgs, "--trace_serial")
	}

	serviceConfig := mgr.Config{
		StartType:   mgr.StartAutomatic,
		DisplayName: "TM-V71 Hamlib Adapter",
		Description: "Run the TM-V71 Hamlib adapter as a Windows service",
	}

	log.Info().Str("command", serviceFilename+" "+strings.Join(serviceArgs, " ")).Msg("service command")

	services, err := mgr.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to the service manager")
	}
	defer services.Disconnect()

	service, err := services.OpenService(serviceName)
	if err == nil {
		service.Close()
		log.Fatal().Msgf("the %s service already exists", serviceName)
	}

	service, err = services.CreateService(serviceName, serviceFilename, serviceConfig, serviceArgs...)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create the service")
	}
	defer service.Close()

	err = eventlog.InstallAsEventCreate(serviceName, eventlog.Error|eventlog.Warning|eventlog.Info)
	if err != nil {
		service.Delete()
		log.Fatal().Err(err).Msgf("cannot setup log for the %s service", serviceName)
	}
	log.Info().Msg("the tmv71adapter Windows service was successfully installed")
}

func uninstall(cmd *cobra.Command, args []string) {
	setupLogging()
	log.Info().Str("version", version).Msg("uninstalling the tmv71adapter Windows service")

	services, err := mgr.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to the service manager")
	}
	defer services.Disconnect()

	service, err := services.OpenService(serviceName)
	if err != nil {
		log.Fatal().Err(err).Msgf("the %s Windows service is currently not installed", serviceName)
	}
	defer service.Close()

	err = service.Delete()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot delete the service")
	}

	err = eventlog.Remove(serviceName)
	if err != nil {
		log.Fatal().Err(err).Msgf("cannot remove log for the %s service", serviceName)
	}
	log.Info().Msg("the tmv71adapter Windows service was successfully uninstalled")
}

func exePath() (string, error) {
	prog := os.Args[0]
	p, err := filepath.Abs(prog)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(p)
	if err == nil {
		if !fi.Mode().IsDir() {
			return p, nil
		}
		err = fmt.Errorf("%s is directory", p)
	}
	if filepath.Ext(p) == "" {
		p += ".exe"
		fi, err := os.Stat(p)
		if err == nil {
			if !fi.Mode().IsDir() {
				return p, nil
			}
			err = fmt.Errorf("%s is directory", p)
		}
	}
	return "", err
}

type serviceHandler struct{}

func (s *serviceHandler) Execute(args []string, requests <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, errno uint32) {
	const cmdsAccepted = svc.AcceptStop | svc.AcceptShutdown
	changes <- svc.Status{State: svc.StartPending}

	trx, err := tmv71.OpenSerial(serialConfig())
	if err != nil {
		log.Error().Err(err).Msg("cannot open the radio")
		return false, 1
	}
	defer trx.Close()

	done := make(chan struct{})
	a, err := adapter.Listen(*rootFlags.localAddress, tmv71.New(trx), done, *rootFlags.traceHamlib, version)
	if err != nil {
		log.Error().Err(err).Msg("starting the adapter failed")
		return false, 1
	}

	changes <- svc.Status{State: svc.Running, Accepts: cmdsAccepted}
	for {
		select {
		case c := <-requests:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				changes <- svc.Status{State: svc.StopPending}
				close(done)
				a.Wait()
				return
			default:
				log.Error().Msgf("unexpected control request #%d", c)
			}
		}
	}
}
