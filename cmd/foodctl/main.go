// Command foodctl is the operator CLI: admin account maintenance, secret
// generation and a terminal order-notification watcher.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lorrc/cloudkitchen-backend/internal/adapters/secondary/postgres"
	"github.com/lorrc/cloudkitchen-backend/internal/config"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
	"github.com/lorrc/cloudkitchen-backend/internal/core/services"
	"github.com/lorrc/cloudkitchen-backend/internal/infrastructure/logging"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// env is what the commands need from the outside world.
type env struct {
	out    io.Writer
	logger *slog.Logger
	// admins opens the account service; the returned func releases it.
	admins func(ctx context.Context) (ports.AdminAccountService, func(), error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := &env{
		out: os.Stdout,
		logger: logging.NewLogger(logging.Config{
			Level:       os.Getenv("LOG_LEVEL"),
			Format:      "text",
			Output:      os.Stderr,
			ServiceName: "foodctl",
		}),
		admins: openAdmins,
	}

	if err := newRootCmd(e).ExecuteContext(ctx); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "foodctl",
		Short:         "Operate the cloud kitchen backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(e.out)

	root.AddCommand(
		newCreateAdminCmd(e),
		newCheckAdminCmd(e),
		newUpdateAdminPasswordCmd(e),
		newGenerateSecretCmd(e),
		newWatchCmd(e),
	)
	return root
}

// openAdmins connects to the database named by DATABASE_URL.
func openAdmins(ctx context.Context) (ports.AdminAccountService, func(), error) {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return nil, nil, err
	}
	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		return nil, nil, err
	}
	return services.NewAdminAccountService(postgres.NewUserRepository(pool)), pool.Close, nil
}
