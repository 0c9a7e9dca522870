package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/roomshare/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// DefaultToken is the bearer token FakeBackend issues and accepts.
const DefaultToken = "test-token"

// FakeUser is an account known to the fake backend.
type FakeUser struct {
	ID       int64
	Name     string
	Email    string
	Password string
	Verified bool
}

// FakeBackend is an in-process stand-in for the expense REST API.
// Seed it through its exported fields before issuing requests; the mutex
// guards reads made by the handlers.
type FakeBackend struct {
	Server *httptest.Server

	mu sync.Mutex

	// ValidToken is the only bearer token accepted. Empty accepts any non-empty token.
	ValidToken string

	Users    []FakeUser
	Groups   []models.Group
	Members  map[int64][]models.Member
	Expenses map[int64][]models.Expense
	Balances map[int64][]models.Balance
	Summary  map[string]models.MonthlySummary // key "<groupID>:<month>"

	// FailStatus forces a status for a route key like "GET /groups/my-groups".
	FailStatus map[string]int

	// PendingOTP maps email to the OTP issued at signup.
	PendingOTP map[string]string

	// ResetTokens that reset-password accepts.
	ResetTokens map[string]string // token -> email

	calls []string

	LastExpense   *models.NewExpense
	LastProofName string
	LastProof     []byte
	LastAuth      string
	LastRequestID string
}

// NewFakeBackend starts a fake backend that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		ValidToken:  DefaultToken,
		Members:     map[int64][]models.Member{},
		Expenses:    map[int64][]models.Expense{},
		Balances:    map[int64][]models.Balance{},
		Summary:     map[string]models.MonthlySummary{},
		FailStatus:  map[string]int{},
		PendingOTP:  map[string]string{},
		ResetTokens: map[string]string{},
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the API base URL to hand to apiclient.New.
func (f *FakeBackend) URL() string { return f.Server.URL + "/api" }

// Calls returns the route keys received so far, in order.
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts calls to one route key.
func (f *FakeBackend) CallCount(key string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == key {
			n++
		}
	}
	return n
}

// Fail makes route key answer with status until cleared with Fail(key, 0).
func (f *FakeBackend) Fail(key string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.FailStatus, key)
		return
	}
	f.FailStatus[key] = status
}

// AddUser seeds a verified account and returns it.
func (f *FakeBackend) AddUser(name, email, password string) FakeUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := FakeUser{ID: int64(len(f.Users) + 1), Name: name, Email: email, Password: password, Verified: true}
	f.Users = append(f.Users, u)
	return u
}

// SetGroups replaces the my-groups response.
func (f *FakeBackend) SetGroups(groups ...models.Group) {
	f.mu.Lock()
	f.Groups = groups
	f.mu.Unlock()
}

func (f *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", f.signup)
		r.Post("/auth/verify-otp", f.verifyOTP)
		r.Post("/auth/login", f.login)
		r.Post("/auth/forgot-password", f.forgotPassword)
		r.Post("/auth/reset-password", f.resetPassword)

		r.Group(func(pr chi.Router) {
			pr.Use(f.requireToken)
			pr.Get("/groups/my-groups", f.myGroups)
			pr.Post("/groups", f.createGroup)
			pr.Get("/groups/{id}/members", f.members)
			pr.Post("/groups/{id}/members", f.addMember)
			pr.Delete("/groups/{id}/members/{userID}", f.removeMember)
			pr.Get("/expenses/group/{id}", f.expenses)
			pr.Get("/expenses/group/{id}/balances", f.balances)
			pr.Get("/expenses/group/{id}/summary", f.summary)
			pr.Post("/expenses", f.addExpense)
		})
	})
	return r
}

func routeKey(r *http.Request) string {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	return r.Method + " " + path
}

func (f *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r)
		f.mu.Lock()
		f.calls = append(f.calls, key)
		f.LastAuth = r.Header.Get("Authorization")
		f.LastRequestID = r.Header.Get("X-Request-ID")
		status := f.FailStatus[key]
		f.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]string{"message": fmt.Sprintf("forced failure %d", status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		valid := f.ValidToken
		f.mu.Unlock()
		if !ok || token == "" || (valid != "" && token != valid) {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Access denied"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func message(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func idParam(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id
}

/*─────────────────────────────────────────────────────────────────────────────*
| auth                                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (f *FakeBackend) signup(w http.ResponseWriter, r *http.Request) {
	var in struct{ Name, Email, Password string }
	if !decode(r, &in) {
		message(w, http.StatusBadRequest, "Invalid request")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.Users {
		if strings.EqualFold(u.Email, in.Email) && u.Verified {
			message(w, http.StatusBadRequest, "Email is already in use.")
			return
		}
	}
	f.Users = append(f.Users, FakeUser{ID: int64(len(f.Users) + 1), Name: in.Name, Email: in.Email, Password: in.Password})
	f.PendingOTP[in.Email] = "123456"
	message(w, http.StatusOK, "Verification OTP sent to your email address.")
}

func (f *FakeBackend) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, OTP string }
	if !decode(r, &in) {
		message(w, http.StatusBadRequest, "Invalid request")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if want, ok := f.PendingOTP[in.Email]; !ok || want != in.OTP {
		message(w, http.StatusBadRequest, "Invalid or expired OTP.")
		return
	}
	delete(f.PendingOTP, in.Email)
	for i := range f.Users {
		if f.Users[i].Email == in.Email {
			f.Users[i].Verified = true
		}
	}
	message(w, http.StatusOK, "User registered successfully. You can now log in.")
}

func (f *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, Password string }
	if !decode(r, &in) {
		message(w, http.StatusBadRequest, "Invalid request")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.Users {
		if strings.EqualFold(u.Email, in.Email) && u.Password == in.Password && u.Verified {
			token := f.ValidToken
			if token == "" {
				token = DefaultToken
			}
			writeJSON(w, http.StatusOK, map[string]string{"token": token})
			return
		}
	}
	message(w, http.StatusUnauthorized, "Invalid email or password.")
}

func (f *FakeBackend) forgotPassword(w http.ResponseWriter, r *http.Request) {
	message(w, http.StatusOK, "If an account with this email exists, a password reset link has been sent.")
}

func (f *FakeBackend) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if !decode(r, &in) {
		message(w, http.StatusBadRequest, "Invalid request")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.ResetTokens[in.Token]
	if !ok {
		message(w, http.StatusBadRequest, "Invalid or expired password reset token.")
		return
	}
	delete(f.ResetTokens, in.Token)
	for i := range f.Users {
		if f.Users[i].Email == email {
			f.Users[i].Password = in.NewPassword
		}
	}
	message(w, http.StatusOK, "Your password has been reset successfully.")
}

/*─────────────────────────────────────────────────────────────────────────────*
| groups                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (f *FakeBackend) myGroups(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	groups := append([]models.Group{}, f.Groups...)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, groups)
}

func (f *FakeBackend) createGroup(w http.ResponseWriter, r *http.Request) {
	var in struct{ Name string }
	if !decode(r, &in) || strings.TrimSpace(in.Name) == "" {
		message(w, http.StatusBadRequest, "Group name is required.")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.Groups) + 100)
	f.Groups = append(f.Groups, models.Group{GroupID: id, GroupName: in.Name, UserRole: models.RoleAdmin})
	writeJSON(w, http.StatusOK, models.CreatedGroup{ID: id, Name: in.Name})
}

func (f *FakeBackend) members(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	f.mu.Lock()
	m := append([]models.Member{}, f.Members[id]...)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, m)
}

func (f *FakeBackend) addMember(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	var in struct{ Email string }
	if !decode(r, &in) {
		message(w, http.StatusBadRequest, "Invalid request")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.Members[id] {
		if strings.EqualFold(m.Email, in.Email) {
			message(w, http.StatusConflict, "User is already a member of this group.")
			return
		}
	}
	for _, u := range f.Users {
		if strings.EqualFold(u.Email, in.Email) {
			f.Members[id] = append(f.Members[id], models.Member{UserID: u.ID, Name: u.Name, Email: u.Email, Role: models.RoleMember})
			message(w, http.StatusOK, "Member added successfully.")
			return
		}
	}
	message(w, http.StatusNotFound, "User not found with email: "+in.Email)
}

func (f *FakeBackend) removeMember(w http.ResponseWriter, r *http.Request) {
	id, userID := idParam(r, "id"), idParam(r, "userID")
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.Members[id][:0]
	for _, m := range f.Members[id] {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	f.Members[id] = kept
	w.WriteHeader(http.StatusNoContent)
}

/*─────────────────────────────────────────────────────────────────────────────*
| expenses                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (f *FakeBackend) expenses(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	f.mu.Lock()
	e := append([]models.Expense{}, f.Expenses[id]...)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, e)
}

func (f *FakeBackend) balances(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	f.mu.Lock()
	b := append([]models.Balance{}, f.Balances[id]...)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, b)
}

func (f *FakeBackend) summary(w http.ResponseWriter, r *http.Request) {
	key := fmt.Sprintf("%d:%s", idParam(r, "id"), r.URL.Query().Get("month"))
	f.mu.Lock()
	s, ok := f.Summary[key]
	f.mu.Unlock()
	if !ok {
		s = models.MonthlySummary{Members: []models.MemberContribution{}}
	}
	writeJSON(w, http.StatusOK, s)
}

func (f *FakeBackend) addExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		message(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}
	var exp models.NewExpense
	if err := json.Unmarshal([]byte(r.FormValue("expense")), &exp); err != nil {
		// the JSON part carries a Content-Type, so it may land in File instead of Value
		if fh := r.MultipartForm.File["expense"]; len(fh) > 0 {
			fr, _ := fh[0].Open()
			b, _ := io.ReadAll(fr)
			_ = fr.Close()
			err = json.Unmarshal(b, &exp)
		}
		if err != nil {
			message(w, http.StatusBadRequest, "Invalid expense payload")
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastExpense = &exp
	f.LastProof, f.LastProofName = nil, ""
	if fhs := r.MultipartForm.File["proofFile"]; len(fhs) > 0 {
		fr, err := fhs[0].Open()
		if err == nil {
			f.LastProof, _ = io.ReadAll(fr)
			_ = fr.Close()
		}
		f.LastProofName = fhs[0].Filename
	}
	created := models.Expense{
		ID:       int64(len(f.Expenses[exp.GroupID]) + 1),
		Title:    exp.Title,
		Amount:   exp.Amount,
		Category: exp.Category,
		AddedBy:  "Test User",
	}
	f.Expenses[exp.GroupID] = append(f.Expenses[exp.GroupID], created)
	writeJSON(w, http.StatusCreated, created)
}
