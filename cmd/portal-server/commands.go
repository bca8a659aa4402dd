package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/ehr/portal/internal/config"
	"github.com/ehr/portal/internal/domain/identity"
	"github.com/ehr/portal/internal/domain/medication"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/db"
	"github.com/ehr/portal/internal/platform/events"
	"github.com/ehr/portal/migrations"
)

func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrations.Files).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.Files).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

// clinicianCmd provisions clinician accounts; they cannot self-register.
func clinicianCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinician",
		Short: "Manage clinician accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a clinician account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			if err := identity.ValidateUsername(username); err != nil {
				return err
			}
			if password == "" {
				return fmt.Errorf("--password is required")
			}

			ctx := cmd.Context()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := newLogger(cfg.IsDev())
			repo := identity.NewRepoPG(db.NewRunner(pool, cfg.DBQueryTimeout))
			i, err := identity.NewService(repo, events.Nop{}, logger).ProvisionClinician(ctx, username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created clinician %s with id %s\n", i.Username, i.ID)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Login name (3-32 letters, digits or underscores)")
	createCmd.Flags().String("password", "", "Initial password")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("password")

	cmd.AddCommand(createCmd)
	return cmd
}

// prescriptionCmd records prescriptions so patients have something to
// request refills against.
func prescriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prescription",
		Short: "Manage prescriptions",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Write a prescription for a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctorID, _ := cmd.Flags().GetString("doctor")
			patientID, _ := cmd.Flags().GetString("patient")
			medName, _ := cmd.Flags().GetString("medication")
			dosage, _ := cmd.Flags().GetString("dosage")
			if auth.DeriveRole(doctorID) != auth.RoleClinician {
				return fmt.Errorf("--doctor must be a clinician id")
			}

			ctx := cmd.Context()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := newLogger(cfg.IsDev())
			runner := db.NewRunner(pool, cfg.DBQueryTimeout)
			identities := identity.NewService(identity.NewRepoPG(runner), events.Nop{}, logger)
			svc := medication.NewService(medication.NewPrescriptionRepoPG(runner), identities, events.Nop{})

			doctor := auth.Principal{IdentityID: doctorID, Role: auth.RoleClinician}
			if _, err := identities.Get(ctx, doctorID); err != nil {
				return err
			}
			p, err := svc.Prescribe(ctx, doctor, patientID, medName, dosage)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created prescription %s\n", p.ID)
			return nil
		},
	}
	createCmd.Flags().String("doctor", "", "Prescribing clinician id")
	createCmd.Flags().String("patient", "", "Patient id")
	createCmd.Flags().String("medication", "", "Medication name")
	createCmd.Flags().String("dosage", "", "Dosage instructions")
	for _, f := range []string{"doctor", "patient", "medication"} {
		_ = createCmd.MarkFlagRequired(f)
	}

	cmd.AddCommand(createCmd)
	return cmd
}

// sessionCmd revokes sessions held in a shared store. An in-memory store
// lives inside the server process and cannot be reached from here.
func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage login sessions",
	}

	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Log an identity out everywhere",
		RunE: func(cmd *cobra.Command, args []string) error {
			identityID, _ := cmd.Flags().GetString("identity")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.SessionStore != config.SessionStoreRedis {
				return fmt.Errorf("session revoke needs SESSION_STORE=%s", config.SessionStoreRedis)
			}

			ctx := cmd.Context()
			registry, closeStore, err := newRegistry(ctx, cfg, newLogger(cfg.IsDev()))
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := registry.DestroyAll(ctx, identityID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %d session(s) for %s\n", n, identityID)
			return nil
		},
	}
	revokeCmd.Flags().String("identity", "", "Identity id")
	_ = revokeCmd.MarkFlagRequired("identity")

	cmd.AddCommand(revokeCmd)
	return cmd
}
