package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/user"
	"github.com/talaan-ph/talaan/services/email"
	"github.com/talaan-ph/talaan/storage/database/dummy"
	"github.com/talaan-ph/talaan/tests"
)

func setup(t *testing.T) (ServerDeps, user.Repository) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := &core.Config{
		TestMode:  true,
		AppName:   "Talaan",
		SecretKey: "secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	repo := dummydb.NewUserRepository(db)
	svc := user.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf)

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	deps := ServerDeps{
		Conf:       conf,
		Logger:     testutil.NewLogger(t),
		UserSvc:    svc,
		Validate:   validate,
		Translator: translator,
	}
	return deps, repo
}

func newRequest(e *echo.Echo, method, path string, data ...[]byte) (echo.Context, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	return ctx, rec
}

func marchallUsers(t *testing.T, users ...user.User) []byte {
	data, err := json.Marshal(users)
	if err != nil {
		t.Fatalf("marchallUsers() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
	wantErr  error
}

func Test_userApi_query(t *testing.T) {
	deps, repo := setup(t)
	api := &userApi{deps: deps}
	e := echo.New()

	path := func(search string, createdFrom, createdTo time.Time, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		if !createdFrom.IsZero() {
			v.Add("created_from", createdFrom.Format(time.RFC3339))
		}
		if !createdTo.IsZero() {
			v.Add("created_to", createdTo.Format(time.RFC3339))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)
	t3 := now.Add(3 * time.Hour)
	t4 := now.Add(4 * time.Hour)
	t5 := now.Add(5 * time.Hour)

	usr1 := testutil.CreateUser(t, repo, "User", "awe", "awe@test.ph", "", nil, true, t1)
	usr2 := testutil.CreateUser(t, repo, "King", "user02", "king@test.ph", "", nil, true)
	officer := testutil.CreateUser(t, repo, "Hero", "hero", "user3@test.ph", "", []string{user.RoleOfficer}, true)
	admin := testutil.CreateUser(t, repo, "Admin", "admin", "admin@test.ph", "", []string{user.RoleAdmin}, true, t2.Truncate(time.Second))
	principal := testutil.CreateUser(t, repo, "Principal", "princip", "princip@test.ph", "", []string{user.RoleAdminPrincipal}, true)
	adviser := testutil.CreateUser(t, repo, "Adviser", "adviser", "adviser@test.ph", "", []string{user.RoleAdviser}, true, t3)
	naughty := testutil.CreateUser(t, repo, "N Dog", "ndog", "ndog@test.ph", "", []string{user.RoleOfficer}, false)
	empty := marchallUsers(t)

	tests := []httpTest{
		{name: "Get all", path: "/users", wantData: marchallUsers(t, usr1, usr2, officer, admin, principal, adviser, naughty)},
		{name: "search (unknown)", path: path("lol", time.Time{}, time.Time{}, nil), wantData: empty},
		{name: "search=USE", path: path("USE", time.Time{}, time.Time{}, nil), wantData: marchallUsers(t, usr1, usr2, officer)},
		{name: "role (unknown)", path: path("", time.Time{}, time.Time{}, nil, "lol"), wantData: empty},
		{name: "role=admin:", path: path("", time.Time{}, time.Time{}, nil, user.RoleAdmin), wantData: marchallUsers(t, admin, principal)},
		{name: "role=adviser:", path: path("", time.Time{}, time.Time{}, nil, user.RoleAdviser), wantData: marchallUsers(t, adviser)},
		{name: "role=adviser:,officer:", path: path("", time.Time{}, time.Time{}, nil, user.RoleAdviser, user.RoleOfficer), wantData: marchallUsers(t, adviser, officer, naughty)},
		{name: "is_active=true", path: path("", time.Time{}, time.Time{}, bPtr(true)), wantData: marchallUsers(t, usr1, usr2, officer, admin, principal, adviser)},
		{name: "is_active=false", path: path("", time.Time{}, time.Time{}, bPtr(false)), wantData: marchallUsers(t, naughty)},
		{name: "created_from (UTC)", path: path("", t1.UTC(), time.Time{}, nil), wantData: marchallUsers(t, usr1, admin, adviser)},
		{name: "created_from (curr TZ)", path: path("", t1, time.Time{}, nil), wantData: marchallUsers(t, usr1, admin, adviser)},
		{name: "created_to (curr TZ)", path: path("", time.Time{}, t2, nil), wantData: marchallUsers(t, usr1, usr2, officer, admin, principal, naughty)},
		{name: "created_from - created_to (empty)", path: path("", t4, t5, nil), wantData: empty},
		{name: "created_from - created_to (found)", path: path("", t1, t2, nil), wantData: marchallUsers(t, usr1, admin)},
		{name: "all combo (empty)", path: path("USE", t1, t5, bPtr(true), user.RoleAdminPrincipal), wantData: empty},
		{name: "all combo (found)", path: path("advi", t1, t5, bPtr(true), user.RoleAdviser), wantData: marchallUsers(t, adviser)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.wantCode = http.StatusOK

		t.Run(tt.name, func(t *testing.T) {
			ctx, rec := newRequest(e, tt.method, tt.path, tt.body)
			if err := api.query(ctx); err != tt.wantErr {
				t.Errorf("query() error = %v; wantErr %v", err, tt.wantErr)
			}
			if rec.Code != tt.wantCode {
				t.Errorf("query() code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
			if err != nil {
				t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
			}
			if !ok {
				t.Errorf("query() data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
			}
		})
	}
}

func Test_userApi_login(t *testing.T) {
	deps, repo := setup(t)
	api := &userApi{deps: deps}
	e := echo.New()

	testutil.CreateUser(t, repo, "Adviser", "adviser", "adviser@test.ph", "LetMeIn!", []string{user.RoleAdviser}, true)
	testutil.CreateUser(t, repo, "N Dog", "ndog", "ndog@test.ph", "LetMeIn!", []string{user.RoleOfficer}, false)

	body := func(uname, pwd string) []byte {
		data, err := json.Marshal(LoginRequest{Username: uname, Password: pwd})
		if err != nil {
			t.Fatalf("marshalling LoginRequest failed: %v", err)
		}
		return data
	}

	tests := []struct {
		name    string
		body    []byte
		wantErr error
	}{
		{name: "username + password", body: body("adviser", "LetMeIn!")},
		{name: "email + password", body: body("adviser@test.ph", "LetMeIn!")},
		{name: "username is case-insensitive", body: body("ADVISER", "LetMeIn!")},
		{name: "unknown user", body: body("who", "LetMeIn!"), wantErr: errAuthenticationFailed},
		{name: "wrong password", body: body("adviser", "letmein"), wantErr: errAuthenticationFailed},
		{name: "deactivated account", body: body("ndog", "LetMeIn!"), wantErr: errAccountDeactivated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, rec := newRequest(e, http.MethodPost, "/users/login", tt.body)
			err := api.login(ctx)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("login() error = %v; wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if rec.Code != http.StatusOK {
				t.Errorf("login() code = %v; wantCode %v", rec.Code, http.StatusOK)
			}
			var resp LoginResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshalling LoginResponse failed: %v", err)
			}
			if resp.Token == "" {
				t.Error("login() returned an empty token")
			}
		})
	}
}
