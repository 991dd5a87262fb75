// Package main is used for the blackbox-update control tool.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackbox-racing/blackboxd/api"
)

func main() {
	socketPath := ""

	root := &cobra.Command{
		Use:           "blackbox-update",
		Short:         "Control the blackboxd update engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&socketPath, "socket", "/run/blackboxd/unix.socket", "Path to the blackboxd control socket")

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current update status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := getStatus(cmd.Context(), socketPath)
			if err != nil {
				return err
			}

			printStatus(status)

			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Trigger an immediate update check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := triggerCheck(cmd.Context(), socketPath)
			if err != nil {
				return err
			}

			fmt.Println("Update check completed.")
			printStatus(status)

			return nil
		},
	})

	err := root.Execute()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

func getStatus(ctx context.Context, socketPath string) (*api.UpdateStatus, error) {
	return request(ctx, socketPath, http.MethodGet, "/1.0/update")
}

func triggerCheck(ctx context.Context, socketPath string) (*api.UpdateStatus, error) {
	return request(ctx, socketPath, http.MethodPost, "/1.0/update/:check")
}

func request(ctx context.Context, socketPath string, method string, path string) (*api.UpdateStatus, error) {
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				dialer := net.Dialer{}

				return dialer.DialContext(ctx, "unix", socketPath)
			},
		},
		Timeout: 15 * time.Minute,
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://blackboxd"+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.New("unable to reach blackboxd: " + err.Error())
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	envelope := api.Response{}

	err = json.Unmarshal(body, &envelope)
	if err != nil {
		return nil, err
	}

	if envelope.Type == "error" {
		return nil, errors.New(envelope.Error)
	}

	status := &api.UpdateStatus{}

	err = envelope.MetadataAsStruct(status)
	if err != nil {
		return nil, err
	}

	return status, nil
}

func printStatus(status *api.UpdateStatus) {
	fmt.Println("Current version: v" + status.CurrentVersion)
	fmt.Println("Repository: " + valueOr(status.GithubRepo, "(none)"))
	fmt.Printf("Auto-update: %v\n", status.AutoUpdateEnabled)
	fmt.Printf("Config sync: %v\n", status.ConfigSyncEnabled)

	if status.LastCheck.IsZero() {
		fmt.Println("Last check: never")
	} else {
		fmt.Println("Last check: " + status.LastCheck.Local().Format(time.RFC1123))
	}
}

func valueOr(value string, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
