package controllers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/taskreward_backend/controllers"
	"github.com/HSouheill/taskreward_backend/middleware"
	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/repositories/memory"
	"github.com/HSouheill/taskreward_backend/routes"
	"github.com/HSouheill/taskreward_backend/services"
	"github.com/HSouheill/taskreward_backend/session"
	"github.com/HSouheill/taskreward_backend/websocket"
)

const adminPrefix = "/control-room"

type structValidator struct{ v *validator.Validate }

func (s structValidator) Validate(i interface{}) error { return s.v.Struct(i) }

type tokenTable map[string]*services.Identity

func (t tokenTable) Verify(_ context.Context, token string) (*services.Identity, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return nil, errors.New("token rejected")
}

type noImages struct{}

func (noImages) Upload(context.Context, []byte, string) (string, error) {
	return "", errors.New("uploads disabled")
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type app struct {
	t     *testing.T
	echo  *echo.Echo
	store *memory.Store
}

func newApp(t *testing.T) *app {
	t.Helper()
	store := memory.New()
	keys, err := session.DeriveKeys("controller-test-secret-value")
	require.NoError(t, err)
	codec := session.NewCookieCodec(keys.Signing, false)

	tokens := tokenTable{}
	for _, uid := range []string{"alice", "bob", "root"} {
		tokens["tok-"+uid] = &services.Identity{UID: uid, Email: uid + "@example.com"}
	}

	rules := services.DefaultRules()
	hub := websocket.NewHub()
	identity := services.NewIdentityService(store, store, tokens, session.NewMemoryStore(), time.Hour, rules)
	tasks := services.NewTaskService(store, store, store, noImages{}, hub, rules)
	wallet := services.NewWalletService(store, store, store, store, nil, hub, rules)
	account := services.NewAccountService(store, store, store, store, nil, hub, "https://tasks.example.com")
	admin := services.NewAdminService(store, store, tasks, wallet, nil)
	guard := middleware.NewSessionGuard(identity, codec)

	e := echo.New()
	e.Validator = structValidator{v: validator.New()}
	routes.SetupRoutes(e, routes.Handlers{
		Guard:       guard,
		AdminPrefix: adminPrefix,
		Auth:        controllers.NewAuthController(identity, guard, codec, map[string]string{"projectId": "demo"}, adminPrefix),
		Task:        controllers.NewTaskController(tasks),
		Wallet:      controllers.NewWalletController(wallet, controllers.ActivationInfo{Fee: 50, Number: "01800000000"}),
		Account:     controllers.NewAccountController(account, admin),
		Admin:       controllers.NewAdminController(admin, tasks, wallet, hub, websocket.NewUpgrader(nil)),
	})

	store.PutUser(models.User{ID: "root", Email: "root@example.com", Role: models.RoleAdmin})
	return &app{t: t, echo: e, store: store}
}

func (a *app) do(method, path string, body string, contentType string, cookie *http.Cookie) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (a *app) form(path string, values url.Values, cookie *http.Cookie) (*httptest.ResponseRecorder, envelope) {
	return a.do(http.MethodPost, path, values.Encode(), echo.MIMEApplicationForm, cookie)
}

func (a *app) login(uid string) *http.Cookie {
	a.t.Helper()
	rec, env := a.do(http.MethodPost, "/session_login", `{"idToken":"tok-`+uid+`"}`, echo.MIMEApplicationJSON, nil)
	require.Equal(a.t, http.StatusOK, rec.Code, env.Message)
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	a.t.Fatal("login did not set a session cookie")
	return nil
}

func TestSessionLogin(t *testing.T) {
	a := newApp(t)

	rec, env := a.do(http.MethodPost, "/session_login", `{"idToken":"tok-alice"}`, echo.MIMEApplicationJSON, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"next":"/dashboard"`)

	rec, env = a.do(http.MethodPost, "/session_login", `{"idToken":"tok-root"}`, echo.MIMEApplicationJSON, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"next":"`+adminPrefix+`"`)

	rec, env = a.do(http.MethodPost, "/session_login", `{"idToken":"forged"}`, echo.MIMEApplicationJSON, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"next":"/auth"}`, string(env.Data))

	rec, _ = a.do(http.MethodPost, "/session_login", `{}`, echo.MIMEApplicationJSON, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthPageAndLogout(t *testing.T) {
	a := newApp(t)

	_, env := a.do(http.MethodGet, "/auth?ref=bob", "", "", nil)
	assert.Contains(t, string(env.Data), `"refCode":"bob"`)
	assert.Contains(t, string(env.Data), `"authenticated":false`)

	cookie := a.login("alice")
	_, env = a.do(http.MethodGet, "/auth", "", "", cookie)
	assert.Contains(t, string(env.Data), `"authenticated":true`)

	rec, _ := a.do(http.MethodPost, "/logout", "", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = a.do(http.MethodGet, "/dashboard", "", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReferralSignupThroughLogin(t *testing.T) {
	a := newApp(t)
	a.login("alice")

	rec, env := a.do(http.MethodPost, "/session_login", `{"idToken":"tok-bob","refCode":"alice"}`, echo.MIMEApplicationJSON, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	alice, err := a.store.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 10.0, alice.Balance)
	assert.Equal(t, 1, alice.ReferralCount)
}

func TestWithdrawStatusMapping(t *testing.T) {
	a := newApp(t)
	cookie := a.login("alice")
	ctx := context.Background()

	withdraw := func(amount string) (*httptest.ResponseRecorder, envelope) {
		return a.form("/withdraw", url.Values{"amount": {amount}, "method": {"bkash"}, "number": {"01700000000"}}, cookie)
	}

	rec, env := withdraw("abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid amount entered.", env.Message)

	rec, env = withdraw("10")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "50.00")

	a.store.PutUser(models.User{ID: "alice", Email: "alice@example.com", Balance: 100})
	rec, env = withdraw("60")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), `"requiredReferrals":3`)

	a.store.PutUser(models.User{ID: "alice", Email: "alice@example.com", Balance: 300, ReferralCount: 3})
	rec, env = withdraw("60")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"next":"/kyc"}`, string(env.Data))

	a.store.PutUser(models.User{ID: "alice", Email: "alice@example.com", Balance: 300, ReferralCount: 3})
	require.NoError(t, a.store.SaveKYC(ctx, "alice", "+8801700000000", models.KYC{Name: "Alice"}))
	rec, env = withdraw("60")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.JSONEq(t, `{"next":"/activation"}`, string(env.Data))

	user, err := a.store.GetUser(ctx, "alice")
	require.NoError(t, err)
	user.IsActive = true
	a.store.PutUser(*user)
	rec, env = withdraw("60")
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)

	user, err = a.store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 240.0, user.Balance)
}

func TestAdminRoutesRequireAdminSession(t *testing.T) {
	a := newApp(t)

	rec, _ := a.do(http.MethodGet, adminPrefix, "", "", a.login("alice"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := a.do(http.MethodGet, adminPrefix, "", "", a.login("root"))
	assert.Equal(t, http.StatusOK, rec.Code, env.Message)
}

func TestConsoleActions(t *testing.T) {
	a := newApp(t)
	root := a.login("root")
	a.login("alice")

	rec, env := a.form(adminPrefix, url.Values{
		"create_task": {"1"}, "title": {"Follow our page"}, "reward": {"5"}, "proof_requirement": {"text"},
	}, root)
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)
	assert.Equal(t, "New Task Published!", env.Message)

	rec, env = a.form(adminPrefix, url.Values{
		"update_balance": {"1"}, "target_uid": {"alice"}, "amount": {"12.5"}, "action_type": {"add"},
	}, root)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, _ = a.form(adminPrefix, url.Values{
		"update_system_notice": {"1"}, "notice_text": {"Payday is Friday"},
	}, root)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = a.form(adminPrefix, url.Values{"publish_notice": {"1"}, "title": {"Hi"}, "message": {"Welcome"}}, root)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = a.form(adminPrefix, url.Values{"something_else": {"1"}}, root)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	alice, err := a.store.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 12.5, alice.Balance)

	_, env = a.do(http.MethodGet, "/dashboard", "", "", a.login("alice"))
	assert.Contains(t, string(env.Data), "Payday is Friday")
}

func TestSubmitAndBulkApprove(t *testing.T) {
	a := newApp(t)
	root := a.login("root")
	alice := a.login("alice")
	ctx := context.Background()

	var taskIDs []string
	for _, title := range []string{"one", "two"} {
		task := &models.Task{Title: title, Reward: 3, ProofRequirement: models.ProofText}
		require.NoError(t, a.store.CreateTask(ctx, task))
		taskIDs = append(taskIDs, task.ID.Hex())
	}

	var subIDs []string
	for _, id := range taskIDs {
		rec, env := a.form("/tasks", url.Values{"task_id": {id}, "proof_text": {"done"}}, alice)
		require.Equal(t, http.StatusCreated, rec.Code, env.Message)
		var sub models.Submission
		require.NoError(t, json.Unmarshal(env.Data, &sub))
		subIDs = append(subIDs, sub.ID.Hex())
	}

	rec, _ := a.form("/tasks", url.Values{"task_id": {taskIDs[0]}, "proof_text": {"again"}}, alice)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env := a.form(adminPrefix+"/bulk_approve", url.Values{"selected_ids[]": append(subIDs, "bogus")}, root)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	assert.Equal(t, "Successfully Approved 2 Tasks!", env.Message)

	rec, _ = a.form(adminPrefix+"/bulk_approve", url.Values{}, root)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	user, err := a.store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 6.0, user.Balance)
}

func TestReferralQRCodeEndpoint(t *testing.T) {
	a := newApp(t)
	rec, _ := a.do(http.MethodGet, "/referral/qrcode", "", "", a.login("alice"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "https://tasks.example.com/auth?ref=alice", rec.Header().Get("X-Referral-Link"))
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	rec, env := a.do(http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", env.Message)
}
