package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/metrics"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"github.com/dalemusser/roomshare/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func newClient(t *testing.T) (*apiclient.Client, *testutil.FakeBackend) {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	return apiclient.New(fb.URL(), 5*time.Second, nil, zap.NewNop()), fb
}

func TestLogin_ReturnsToken(t *testing.T) {
	c, fb := newClient(t)
	fb.AddUser("Asha", "asha@example.com", "password123")

	token, err := c.Login(context.Background(), "asha@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != testutil.DefaultToken {
		t.Errorf("token = %q, want %q", token, testutil.DefaultToken)
	}
}

func TestLogin_BadCredentialsCarriesMessage(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.Login(context.Background(), "nobody@example.com", "wrongpass")
	if err == nil {
		t.Fatal("expected error")
	}
	if !apiclient.IsUnauthorized(err) {
		t.Errorf("expected unauthorized, got %v", err)
	}
	if got := apiclient.MessageOr(err, "fallback"); got != "Invalid email or password." {
		t.Errorf("message = %q", got)
	}
}

func TestBearer_AttachedOnlyAfterSet(t *testing.T) {
	c, fb := newClient(t)
	ctx := context.Background()

	if _, err := c.MyGroups(ctx); !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("MyGroups without token: want ErrUnauthorized, got %v", err)
	}

	c.SetBearer(testutil.DefaultToken)
	fb.SetGroups(models.Group{GroupID: 7, GroupName: "Flat 4B", UserRole: models.RoleAdmin})
	groups, err := c.MyGroups(ctx)
	if err != nil {
		t.Fatalf("MyGroups: %v", err)
	}
	if len(groups) != 1 || groups[0].GroupID != 7 {
		t.Errorf("groups = %+v", groups)
	}
	if fb.LastAuth != "Bearer "+testutil.DefaultToken {
		t.Errorf("Authorization = %q", fb.LastAuth)
	}
	if fb.LastRequestID == "" {
		t.Error("expected X-Request-ID header")
	}

	c.ClearBearer()
	if c.Bearer() != "" {
		t.Error("Bearer should be empty after ClearBearer")
	}
	if _, err := c.MyGroups(ctx); !apiclient.IsUnauthorized(err) {
		t.Errorf("MyGroups after clear: want unauthorized, got %v", err)
	}
}

func TestClone_DoesNotShareToken(t *testing.T) {
	c, _ := newClient(t)
	c.SetBearer("abc")

	cl := c.Clone()
	if cl.Bearer() != "" {
		t.Errorf("clone bearer = %q, want empty", cl.Bearer())
	}
	cl.SetBearer("xyz")
	if c.Bearer() != "abc" {
		t.Errorf("original bearer changed to %q", c.Bearer())
	}
	if cl.BaseURL() != c.BaseURL() {
		t.Errorf("clone base URL = %q", cl.BaseURL())
	}
}

func TestAddGroupMember_ConflictMessage(t *testing.T) {
	c, fb := newClient(t)
	c.SetBearer(testutil.DefaultToken)
	fb.Members[3] = []models.Member{{UserID: 1, Name: "Ravi", Email: "ravi@example.com", Role: models.RoleMember}}

	err := c.AddGroupMember(context.Background(), 3, "ravi@example.com")
	if !errors.Is(err, apiclient.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if got := apiclient.MessageOr(err, ""); got != "User is already a member of this group." {
		t.Errorf("message = %q", got)
	}
}

func TestRemoveGroupMember(t *testing.T) {
	c, fb := newClient(t)
	c.SetBearer(testutil.DefaultToken)
	fb.Members[3] = []models.Member{
		{UserID: 1, Name: "Ravi", Email: "ravi@example.com"},
		{UserID: 2, Name: "Meera", Email: "meera@example.com"},
	}

	if err := c.RemoveGroupMember(context.Background(), 3, 1); err != nil {
		t.Fatalf("RemoveGroupMember: %v", err)
	}
	members, err := c.GroupMembers(context.Background(), 3)
	if err != nil {
		t.Fatalf("GroupMembers: %v", err)
	}
	if len(members) != 1 || members[0].UserID != 2 {
		t.Errorf("members = %+v", members)
	}
}

func TestAddExpense_MultipartWithProof(t *testing.T) {
	c, fb := newClient(t)
	c.SetBearer(testutil.DefaultToken)

	exp := models.NewExpense{GroupID: 5, Title: "Milk", Amount: 42.5, Category: "Groceries"}
	proof := &apiclient.Proof{Filename: "receipt.txt", ContentType: "text/plain", Body: strings.NewReader("paid")}

	created, err := c.AddExpense(context.Background(), exp, proof)
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if created.Title != "Milk" {
		t.Errorf("created = %+v", created)
	}
	if fb.LastExpense == nil || *fb.LastExpense != exp {
		t.Errorf("backend received %+v, want %+v", fb.LastExpense, exp)
	}
	if fb.LastProofName != "receipt.txt" || string(fb.LastProof) != "paid" {
		t.Errorf("proof = %q %q", fb.LastProofName, fb.LastProof)
	}
}

func TestAddExpense_WithoutProof(t *testing.T) {
	c, fb := newClient(t)
	c.SetBearer(testutil.DefaultToken)

	_, err := c.AddExpense(context.Background(), models.NewExpense{GroupID: 5, Title: "Rent", Amount: 900, Category: "Rent"}, nil)
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if fb.LastProofName != "" {
		t.Errorf("unexpected proof %q", fb.LastProofName)
	}
}

func TestMonthlySummary_PassesMonth(t *testing.T) {
	c, fb := newClient(t)
	c.SetBearer(testutil.DefaultToken)
	fb.Summary["5:2024-03"] = models.MonthlySummary{
		TotalSpent: 120,
		Members:    []models.MemberContribution{{UserID: 1, Name: "Ravi", Contribution: 120}},
	}

	s, err := c.MonthlySummary(context.Background(), 5, "2024-03")
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if s.TotalSpent != 120 || len(s.Members) != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestServerError_NotUnauthorized(t *testing.T) {
	c, fb := newClient(t)
	c.SetBearer(testutil.DefaultToken)
	fb.Fail("GET /groups/my-groups", http.StatusInternalServerError)

	_, err := c.MyGroups(context.Background())
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("want APIError 500, got %v", err)
	}
	if apiclient.IsUnauthorized(err) {
		t.Error("500 should not be unauthorized")
	}
}

func TestTransportError_UsesFallbackMessage(t *testing.T) {
	c := apiclient.New("http://127.0.0.1:1/api", time.Second, nil, zap.NewNop())
	_, err := c.Login(context.Background(), "a@b.co", "password123")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if got := apiclient.MessageOr(err, "Login failed. Please check your credentials."); got != "Login failed. Please check your credentials." {
		t.Errorf("message = %q", got)
	}
}

func TestSignupAndVerify_Messages(t *testing.T) {
	c, fb := newClient(t)
	ctx := context.Background()

	msg, err := c.Signup(ctx, apiclient.SignupRequest{Name: "Asha", Email: "asha@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if msg != "Verification OTP sent to your email address." {
		t.Errorf("signup message = %q", msg)
	}

	if _, err := c.VerifyOTP(ctx, "asha@example.com", "000000"); err == nil {
		t.Error("expected wrong OTP to fail")
	}
	msg, err = c.VerifyOTP(ctx, "asha@example.com", fb.PendingOTP["asha@example.com"])
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if msg != "User registered successfully. You can now log in." {
		t.Errorf("verify message = %q", msg)
	}
}

func TestResetPassword(t *testing.T) {
	c, fb := newClient(t)
	fb.AddUser("Asha", "asha@example.com", "oldpassword")
	fb.ResetTokens["tok-1"] = "asha@example.com"

	msg, err := c.ResetPassword(context.Background(), "tok-1", "newpassword")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if msg != "Your password has been reset successfully." {
		t.Errorf("message = %q", msg)
	}
	if _, err := c.Login(context.Background(), "asha@example.com", "newpassword"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestMetrics_RecordedPerOperation(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	m := metrics.New()
	c := apiclient.New(fb.URL(), time.Second, m, zap.NewNop())

	_, _ = c.MyGroups(context.Background())

	got := promtest.ToFloat64(m.BackendRequestsTotal.WithLabelValues("my_groups", "403"))
	if got != 1 {
		t.Errorf("backend_requests_total{my_groups,403} = %v, want 1", got)
	}
}
