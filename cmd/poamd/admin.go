package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/repository"
	"github.com/isaacmuchunu/poam-sub001/internal/service"
	"github.com/isaacmuchunu/poam-sub001/internal/storage"
	"github.com/isaacmuchunu/poam-sub001/internal/tenant"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the shared schema and every provisioned tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			postgres, err := storage.NewPostgres(cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer postgres.Close()

			if err := postgres.AutoMigrate(); err != nil {
				return fmt.Errorf("migrate shared schema: %w", err)
			}

			ctx := cmd.Context()
			orgs, err := repository.NewOrganizationRepository(postgres).List(ctx)
			if err != nil {
				return err
			}

			var errs []error
			for _, org := range orgs {
				if err := postgres.ProvisionSchema(ctx, org.Namespace); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s (%s)\n", org.ID, org.Namespace)
			}
			return errors.Join(errs...)
		},
	}
}

func newProvisionCmd(load configLoader) *cobra.Command {
	var evt service.OrgCreated

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create a tenant schema and register its organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			postgres, err := storage.NewPostgres(cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer postgres.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			provisioning := service.NewProvisioningService(repository.NewOrganizationRepository(postgres), postgres)
			org, err := provisioning.Provision(ctx, evt)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "provisioned %s as %s (tier %s)\n", org.ID, org.Namespace, org.Tier)
			return nil
		},
	}
	cmd.Flags().StringVar(&evt.ID, "org", "", "organization id")
	cmd.Flags().StringVar(&evt.Name, "name", "", "organization display name")
	cmd.Flags().StringVar(&evt.Tier, "tier", "", "subscription tier (free, professional, enterprise)")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func newTokenCmd(load configLoader) *cobra.Command {
	var (
		orgID  string
		userID string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an identity token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwtSecret is not configured")
			}

			token, err := service.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, expiry).Issue(orgID, userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(cmd.ErrOrStderr(), "namespace: %s\n", tenant.DeriveNamespace(orgID))
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().DurationVar(&expiry, "expiry", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func newHashTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token TOKEN",
		Short: "Print the bcrypt hash to configure as admin.tokenHash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}
