package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boutique/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	accounts, err := NewAccounts("Owner@Navyata.com", []Account{
		{Email: "owner@navyata.com", PasswordHash: mustHash(t, "owner-pw")},
		{Email: "staff@navyata.com", PasswordHash: mustHash(t, "staff-pw")},
	})
	require.NoError(t, err)
	return NewService(accounts, testSecret, time.Hour, log.New(log.Config{Output: io.Discard}))
}

func TestRoleCapabilities(t *testing.T) {
	all := []Capability{ViewSales, ViewExpenses, ManageOrders, ViewDesigns, ViewAnalysis, ViewDashboard}
	for _, c := range all {
		assert.True(t, RoleOwner.Can(c), "owner should hold %s", c)
		assert.Equal(t, c == ManageOrders, RoleStaff.Can(c), "staff and %s", c)
	}
	assert.False(t, Role("guest").Can(ManageOrders))

	assert.Equal(t, "/", RoleOwner.Home())
	assert.Equal(t, "/tailoring", RoleStaff.Home())

	_, err := ParseRole("admin")
	assert.Error(t, err)
}

func TestNewAccountsAssignsRoles(t *testing.T) {
	_, err := NewAccounts("o@x.com", []Account{{Email: "o@x.com", PasswordHash: "plain"}})
	assert.Error(t, err, "non-bcrypt hashes are rejected")

	h := mustHash(t, "pw")
	_, err = NewAccounts("o@x.com", []Account{{Email: "o@x.com", PasswordHash: h}, {Email: "O@x.com", PasswordHash: h}})
	assert.Error(t, err, "duplicate emails are rejected")

	accs, err := NewAccounts("o@x.com", []Account{{Email: "o@x.com", PasswordHash: h}, {Email: "", PasswordHash: ""}})
	require.NoError(t, err)
	assert.Equal(t, 1, accs.Len())
}

func TestSignInAndCurrentUser(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	sess, err := s.SignIn(ctx, RoleOwner, "", "owner-pw")
	require.NoError(t, err)
	assert.Equal(t, User{ID: "owner@navyata.com", Role: RoleOwner}, sess.User)

	u, err := s.CurrentUser(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, u.Role)

	staff, err := s.SignIn(ctx, RoleStaff, "staff@navyata.com", "staff-pw")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, staff.User.Role)
}

func TestSignInFailures(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.SignIn(ctx, RoleOwner, "", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.SignIn(ctx, RoleStaff, "nobody@navyata.com", "staff-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.SignIn(ctx, RoleOwner, "staff@navyata.com", "staff-pw")
	assert.ErrorIs(t, err, ErrRoleMismatch)
}

func TestCurrentUserRejectsBadTokens(t *testing.T) {
	s := newTestService(t)
	sess, err := s.SignIn(context.Background(), RoleStaff, "", "staff-pw")
	require.NoError(t, err)

	_, err = s.CurrentUser(sess.Token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(s.accounts, "another-secret-another-secret-xx", time.Hour, nil)
	_, err = other.CurrentUser(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.CurrentUser(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestSignOutRevokes(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	sess, err := s.SignIn(ctx, RoleOwner, "", "owner-pw")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx, sess.Token))
	_, err = s.CurrentUser(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	fresh, err := s.SignIn(ctx, RoleOwner, "", "owner-pw")
	require.NoError(t, err)
	_, err = s.CurrentUser(fresh.Token)
	assert.NoError(t, err, "revocation is per session")
}

func TestSignOutSurvivesManyLaterSignOuts(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	first, err := s.SignIn(ctx, RoleOwner, "", "owner-pw")
	require.NoError(t, err)
	require.NoError(t, s.SignOut(ctx, first.Token))

	acc := Account{Email: "owner@navyata.com", Role: RoleOwner}
	for range 12000 {
		sess, err := s.issue(acc)
		require.NoError(t, err)
		require.NoError(t, s.SignOut(ctx, sess.Token))
	}

	_, err = s.CurrentUser(first.Token)
	assert.ErrorIs(t, err, ErrInvalidToken, "the first signed-out session must stay revoked")
}

func TestRequireCapability(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	owner, err := s.SignIn(ctx, RoleOwner, "", "owner-pw")
	require.NoError(t, err)
	staff, err := s.SignIn(ctx, RoleStaff, "", "staff-pw")
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		w.Write([]byte(u.ID))
	})
	sales := s.RequireCapability(ViewSales)(ok)
	orders := s.RequireCapability(ManageOrders)(ok)

	tests := []struct {
		name    string
		handler http.Handler
		cookie  *http.Cookie
		bearer  string
		want    int
	}{
		{"anonymous", sales, nil, "", http.StatusUnauthorized},
		{"garbage token", sales, nil, "garbage", http.StatusUnauthorized},
		{"owner sales", sales, SessionCookie(owner, false), "", http.StatusOK},
		{"staff sales", sales, SessionCookie(staff, false), "", http.StatusForbidden},
		{"staff orders", orders, nil, staff.Token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
