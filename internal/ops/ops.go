// Package ops implements the plantops operator CLI.
package ops

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/plantops/internal/clock"
	"github.com/dmitrijs2005/plantops/internal/logging"
	"github.com/dmitrijs2005/plantops/internal/netx"
	"github.com/dmitrijs2005/plantops/internal/server"
	"github.com/dmitrijs2005/plantops/internal/server/auth"
	"github.com/dmitrijs2005/plantops/internal/server/authz"
	"github.com/dmitrijs2005/plantops/internal/server/config"
	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/plantops/internal/server/services"
)

// Seams for tests.
var (
	openPostgres  = server.OpenPostgres
	runGeneration = func(ctx context.Context, cfg *config.Config, logger logging.Logger, now time.Time) (int, int, error) {
		stores, err := server.OpenStores(ctx, cfg, clock.Real{})
		if err != nil {
			return 0, 0, err
		}
		defer stores.Close(ctx)

		gen, err := server.NewGenerator(stores, cfg, logger)
		if err != nil {
			return 0, 0, err
		}
		res, err := gen.Generate(ctx, now)
		return res.Generated, res.Errors, err
	}
	uploadAttachment = func(ctx context.Context, cfg *config.Config, uid, instanceID, contentType string, data []byte) (string, error) {
		stores, err := server.OpenStores(ctx, cfg, clock.Real{})
		if err != nil {
			return "", err
		}
		defer stores.Close(ctx)

		resolver := authz.NewResolver(stores.Repos.Users(stores.DB))
		svc := services.NewAttachmentService(resolver, stores.Instances, cfg, clock.Real{})

		u, err := svc.PresignUpload(ctx, uid, instanceID)
		if err != nil {
			return "", err
		}
		if err := netx.NewTransfer().Upload(ctx, u.Method, u.URL, contentType, data); err != nil {
			return "", err
		}
		if err := svc.ConfirmUpload(ctx, uid, instanceID, u.Key); err != nil {
			return "", err
		}
		return u.Key, nil
	}
	downloadAttachment = func(ctx context.Context, cfg *config.Config, uid, instanceID, key string) ([]byte, error) {
		stores, err := server.OpenStores(ctx, cfg, clock.Real{})
		if err != nil {
			return nil, err
		}
		defer stores.Close(ctx)

		resolver := authz.NewResolver(stores.Repos.Users(stores.DB))
		svc := services.NewAttachmentService(resolver, stores.Instances, cfg, clock.Real{})

		u, err := svc.PresignDownload(ctx, uid, instanceID, key)
		if err != nil {
			return nil, err
		}
		return netx.NewTransfer().Download(ctx, u.URL)
	}
)

type options struct {
	configPath string
	logLevel   string
}

func (o *options) load() (*config.Config, logging.Logger, error) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	if o.configPath != "" {
		if err := config.ApplyFile(cfg, o.configPath); err != nil {
			return nil, nil, err
		}
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, logging.New(cfg.LogLevel), nil
}

// NewRootCmd builds the command tree. Output goes to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "plantops-ops",
		Short:         "Operator commands for plantops",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "path to JSON config file")
	root.PersistentFlags().StringVarP(&o.logLevel, "log-level", "l", "", "log level override")

	root.AddCommand(
		newMigrateCmd(o),
		newGenerateCmd(o),
		newTokenCmd(o),
		newProvisionCmd(o),
		newAttachCmd(o),
		newFetchCmd(o),
	)
	return root
}

func newMigrateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := o.load()
			if err != nil {
				return err
			}
			db, _, err := openPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newGenerateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Run one task generation pass now",
		Long:  "Run one task generation pass with operator credentials, like the server's scheduler; no role check applies.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := o.load()
			if err != nil {
				return err
			}
			generated, errs, err := runGeneration(cmd.Context(), cfg, logger, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated=%d errors=%d\n", generated, errs)
			return nil
		},
	}
}

func newTokenCmd(o *options) *cobra.Command {
	var (
		uid string
		ttl time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := o.load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.AccessTokenValidityDuration
			}
			token, err := auth.GenerateToken(uid, []byte(cfg.SecretKey), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "identity-provider UID to put in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token validity (defaults to the configured access token validity)")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

func newProvisionCmd(o *options) *cobra.Command {
	var (
		u    models.User
		role string
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create or update a user record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}
			u.Role = r
			u.IsActive = true

			cfg, _, err := o.load()
			if err != nil {
				return err
			}
			db, rm, err := openPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			saved, err := provision(cmd.Context(), db, rm, &u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "provisioned %s (%s)\n", saved.UID, saved.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&u.UID, "uid", "", "identity-provider UID")
	cmd.Flags().StringVar(&u.Email, "email", "", "email address")
	cmd.Flags().StringVar(&u.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleEmployee), "admin, manager, employee or guest")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

func provision(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, u *models.User) (*models.User, error) {
	return services.NewUserService(db, rm, nil).Provision(ctx, u)
}

func newAttachCmd(o *options) *cobra.Command {
	var uid, instanceID, path, contentType string

	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Upload a file as an attachment of a task instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			cfg, _, err := o.load()
			if err != nil {
				return err
			}
			key, err := uploadAttachment(cmd.Context(), cfg, uid, instanceID, contentType, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "act on behalf of this user")
	cmd.Flags().StringVar(&instanceID, "instance", "", "task instance id")
	cmd.Flags().StringVar(&path, "file", "", "file to upload")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type of the file")
	_ = cmd.MarkFlagRequired("uid")
	_ = cmd.MarkFlagRequired("instance")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newFetchCmd(o *options) *cobra.Command {
	var uid, instanceID, key, out string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download an attachment of a task instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := o.load()
			if err != nil {
				return err
			}
			data, err := downloadAttachment(cmd.Context(), cfg, uid, instanceID, key)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o600)
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "act on behalf of this user")
	cmd.Flags().StringVar(&instanceID, "instance", "", "task instance id")
	cmd.Flags().StringVar(&key, "key", "", "attachment storage key")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	_ = cmd.MarkFlagRequired("uid")
	_ = cmd.MarkFlagRequired("instance")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
