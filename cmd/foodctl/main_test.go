package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	ws "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/websocket"
	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/mocks"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

// syncBuffer is written from client goroutines while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testEnv(admins ports.AdminAccountService) (*env, *syncBuffer, *bool) {
	out := &syncBuffer{}
	released := false
	e := &env{
		out:    out,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		admins: func(context.Context) (ports.AdminAccountService, func(), error) {
			return admins, func() { released = true }, nil
		},
	}
	return e, out, &released
}

func execute(ctx context.Context, e *env, args ...string) error {
	root := newRootCmd(e)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ee *exitErr
	require.ErrorAs(t, err, &ee)
	return ee.code
}

func TestCreateAdmin(t *testing.T) {
	params := domain.UserRegistrationParams{Name: "Administrator", Email: "ops@example.com", Password: "Str0ng!Pass"}

	t.Run("creates", func(t *testing.T) {
		admins := mocks.NewMockAdminAccountService()
		user := &domain.User{ID: uuid.New(), Email: "ops@example.com", Role: domain.RoleAdmin, IsActive: true}
		admins.On("EnsureAdmin", mock.Anything, params).Return(user, true, nil)
		e, out, released := testEnv(admins)

		err := execute(context.Background(), e, "create-admin", "--email", "ops@example.com", "--password", "Str0ng!Pass")

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Created admin ops@example.com")
		assert.True(t, *released)
		admins.AssertExpectations(t)
	})

	t.Run("promotes", func(t *testing.T) {
		admins := mocks.NewMockAdminAccountService()
		user := &domain.User{ID: uuid.New(), Email: "ops@example.com", Role: domain.RoleAdmin, IsActive: true}
		admins.On("EnsureAdmin", mock.Anything, params).Return(user, false, nil)
		e, out, _ := testEnv(admins)

		require.NoError(t, execute(context.Background(), e, "create-admin", "--email", "ops@example.com", "--password", "Str0ng!Pass"))
		assert.Contains(t, out.String(), "Promoted ops@example.com")
	})

	t.Run("validation failure", func(t *testing.T) {
		admins := mocks.NewMockAdminAccountService()
		verrs := apperrors.NewValidationErrors()
		verrs.Add("email", "invalid email")
		admins.On("EnsureAdmin", mock.Anything, mock.Anything).Return(nil, false, verrs)
		e, _, _ := testEnv(admins)

		err := execute(context.Background(), e, "create-admin", "--email", "nope", "--password", "x")
		assert.Equal(t, 2, exitCode(t, err))
	})

	t.Run("requires flags", func(t *testing.T) {
		e, _, _ := testEnv(mocks.NewMockAdminAccountService())
		assert.Error(t, execute(context.Background(), e, "create-admin", "--email", "ops@example.com"))
	})

	t.Run("database unavailable", func(t *testing.T) {
		e, _, _ := testEnv(nil)
		e.admins = func(context.Context) (ports.AdminAccountService, func(), error) {
			return nil, nil, errors.New("DATABASE_URL is required")
		}
		err := execute(context.Background(), e, "create-admin", "--email", "a@b.co", "--password", "p")
		assert.Equal(t, 3, exitCode(t, err))
	})
}

func TestCheckAdmin(t *testing.T) {
	tests := []struct {
		name     string
		user     *domain.User
		err      error
		wantCode int
		wantOut  string
	}{
		{
			name:    "active admin",
			user:    &domain.User{Email: "ops@example.com", Role: domain.RoleAdmin, IsActive: true},
			wantOut: "role:   admin",
		},
		{
			name:     "regular user",
			user:     &domain.User{Email: "ops@example.com", Role: domain.RoleUser, IsActive: true},
			wantCode: 2,
			wantOut:  "role:   user",
		},
		{
			name:     "missing",
			err:      apperrors.ErrUserNotFound,
			wantCode: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admins := mocks.NewMockAdminAccountService()
			admins.On("GetByEmail", mock.Anything, "ops@example.com").Return(tt.user, tt.err)
			e, out, _ := testEnv(admins)

			err := execute(context.Background(), e, "check-admin", "--email", "ops@example.com")

			if tt.wantCode == 0 {
				require.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantCode, exitCode(t, err))
			}
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestUpdateAdminPassword(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"updated", nil, 0},
		{"not found", apperrors.ErrUserNotFound, 2},
		{"not admin", apperrors.ErrForbidden, 2},
		{"weak", apperrors.ErrPasswordTooWeak, 2},
		{"other", errors.New("connection reset"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admins := mocks.NewMockAdminAccountService()
			admins.On("ResetPassword", mock.Anything, "ops@example.com", "N3w!Password").Return(tt.err)
			e, out, released := testEnv(admins)

			err := execute(context.Background(), e, "update-admin-password", "--email", "ops@example.com", "--password", "N3w!Password")

			assert.True(t, *released)
			switch {
			case tt.err == nil:
				require.NoError(t, err)
				assert.Contains(t, out.String(), "Password updated for ops@example.com")
			case tt.wantCode != 0:
				assert.Equal(t, tt.wantCode, exitCode(t, err))
			default:
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	e, out, _ := testEnv(nil)
	require.NoError(t, execute(context.Background(), e, "generate-jwt-secret"))

	secret := strings.TrimSpace(out.String())
	raw, err := hex.DecodeString(secret)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	e, _, _ = testEnv(nil)
	err = execute(context.Background(), e, "generate-jwt-secret", "--bytes", "8")
	assert.Equal(t, 2, exitCode(t, err))
}

func startHubServer(t *testing.T) (*ws.Hub, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := ws.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	require.Eventually(t, hub.Running, time.Second, time.Millisecond)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.NewClient(hub, conn, uuid.New(), ws.DefaultClientConfig(), logger).Start()
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWatch(t *testing.T) {
	t.Run("prints order updates until cancelled", func(t *testing.T) {
		hub, url := startHubServer(t)
		e, out, _ := testEnv(nil)

		ctx, cancel := context.WithCancel(context.Background())
		result := make(chan error, 1)
		go func() {
			result <- execute(ctx, e, "watch", "--url", url, "--token", "admin-token", "--client-id", "cli")
		}()

		require.Eventually(t, func() bool { return hub.Count() == 1 }, 3*time.Second, 10*time.Millisecond)
		now := time.Now().UTC()
		require.NoError(t, hub.Publish(domain.OrderEventCreated, &domain.Order{
			ID:          uuid.New(),
			OrderNumber: "ORD-7",
			Status:      domain.OrderStatusPending,
			TotalAmount: 99.5,
			CreatedAt:   now,
			UpdatedAt:   now,
		}))

		require.Eventually(t, func() bool { return strings.Contains(out.String(), "ORD-7") }, 3*time.Second, 10*time.Millisecond)
		assert.Contains(t, out.String(), "dashboards online")
		assert.Contains(t, out.String(), "99.50")

		cancel()
		select {
		case err := <-result:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("watch did not stop")
		}
	})

	t.Run("gives up when the server is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		srv.Close()
		e, _, _ := testEnv(nil)

		err := execute(context.Background(), e, "watch", "--url", url, "--token", "t",
			"--max-retries", "1", "--backoff", "1ms", "--max-backoff", "2ms")
		assert.Equal(t, 4, exitCode(t, err))
	})

	t.Run("requires a token", func(t *testing.T) {
		t.Setenv("FOODCTL_TOKEN", "")
		e, _, _ := testEnv(nil)
		err := execute(context.Background(), e, "watch")
		assert.Equal(t, 2, exitCode(t, err))
	})
}
