package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/api"
	"github.com/sguter90/agrimaestro/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage field devices",
	Long:  `Issue, list and revoke device API keys, and send test readings.`,
}

var deviceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue an API key for a new device",
	RunE:  runDeviceCreate,
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the devices of a community",
	RunE:  runDeviceList,
}

var deviceDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Revoke a device API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceDeactivate,
}

var deviceSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one reading to a running server",
	Long: `Send one reading the way a field device does. Only measurements whose
flags are set are included in the payload.`,
	RunE: runDeviceSend,
}

var (
	deviceCommunityID string
	deviceName        string

	sendURL      string
	sendKey      string
	sendSequence int64
	sendTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.AddCommand(deviceCreateCmd)
	deviceCmd.AddCommand(deviceListCmd)
	deviceCmd.AddCommand(deviceDeactivateCmd)
	deviceCmd.AddCommand(deviceSendCmd)

	deviceCreateCmd.Flags().StringVar(&deviceCommunityID, "community", "", "community ID")
	deviceCreateCmd.Flags().StringVar(&deviceName, "name", "", "device name")
	deviceCreateCmd.MarkFlagRequired("community")
	deviceCreateCmd.MarkFlagRequired("name")

	deviceListCmd.Flags().StringVar(&deviceCommunityID, "community", "", "community ID")
	deviceListCmd.MarkFlagRequired("community")

	deviceSendCmd.Flags().StringVar(&sendURL, "url", "http://localhost:8059", "server base URL")
	deviceSendCmd.Flags().StringVar(&sendKey, "key", "", "device API key")
	deviceSendCmd.Flags().Int64Var(&sendSequence, "sequence", 1, "sequence number")
	deviceSendCmd.Flags().DurationVar(&sendTimeout, "timeout", 10*time.Second, "request timeout")
	deviceSendCmd.MarkFlagRequired("key")
	for _, info := range models.MeasurementCatalog {
		deviceSendCmd.Flags().Float64(info.Field, 0, fmt.Sprintf("%s (%s)", info.Label, info.Unit))
	}
}

func runDeviceCreate(cmd *cobra.Command, args []string) error {
	dbManager, err := appFromContext(cmd.Context()).DB()
	if err != nil {
		return err
	}

	cred, err := dbManager.CreateDeviceCredential(cmd.Context(), deviceCommunityID, deviceName, nil)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}

	fmt.Printf("✓ Device created with ID: %s\n", cred.ID)
	fmt.Printf("API key: %s\n", cred.APIKey)
	fmt.Println("Store this key on the device now; it is not shown again.")
	return nil
}

func runDeviceList(cmd *cobra.Command, args []string) error {
	dbManager, err := appFromContext(cmd.Context()).DB()
	if err != nil {
		return err
	}

	creds, err := dbManager.ListDeviceCredentials(cmd.Context(), deviceCommunityID)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(creds) == 0 {
		fmt.Println("No devices found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKEY\tACTIVE\tLAST USED")
	for _, c := range creds {
		lastUsed := "never"
		if c.LastUsedAt != nil {
			lastUsed = c.LastUsedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", c.ID, c.DeviceName, models.KeyPrefix(c.APIKey), c.IsActive, lastUsed)
	}
	return w.Flush()
}

func runDeviceDeactivate(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid device ID: %w", err)
	}

	dbManager, err := appFromContext(cmd.Context()).DB()
	if err != nil {
		return err
	}

	if err := dbManager.DeactivateDeviceCredential(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to deactivate device: %w", err)
	}

	fmt.Printf("✓ Device %s deactivated\n", id)
	return nil
}

func runDeviceSend(cmd *cobra.Command, args []string) error {
	payload, err := payloadFromFlags(cmd.Flags(), sendSequence)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
	defer cancel()

	client := api.NewClient(sendURL, api.WithDeviceKey(sendKey))
	result, err := client.PushReading(ctx, payload)
	if err != nil {
		return err
	}

	fmt.Printf("✓ %s (id %s)\n", result.Message, result.ID)
	return nil
}

// payloadFromFlags builds a reading from the measurement flags the user set
func payloadFromFlags(flags *pflag.FlagSet, sequence int64) (models.ReadingPayload, error) {
	payload := models.ReadingPayload{Sequence: sequence}
	for _, info := range models.MeasurementCatalog {
		if !flags.Changed(info.Field) {
			continue
		}
		value, err := flags.GetFloat64(info.Field)
		if err != nil {
			return payload, err
		}
		if err := payload.Measurements.Set(info.Field, value); err != nil {
			return payload, err
		}
	}
	return payload, nil
}
