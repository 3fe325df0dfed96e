package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report engine readiness and pending work",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

func runStatus() error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := a.admin.Status(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Printf("ready:   %v\n", status.Ready)
	fmt.Printf("pending: %d\n", status.PendingCount)
	return nil
}
