package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/user"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	app.createUser(t, "rosa", true, user.RoleAdminPrincipal)
	app.createUser(t, "lucho", true, user.RoleTeacher)
	app.createUser(t, "maria", true, user.RoleAide)
	app.createUser(t, "pepe", true, user.RoleStudent)
	app.createUser(t, "jorge", true, "janitor:")
	app.createUser(t, "naughty", false, user.RoleStudent)

	tests := []struct {
		name         string
		data         LoginRequest
		wantCode     int
		wantRedirect string
		wantErr      string
	}{
		{name: "Admin", data: LoginRequest{Username: "Rosa", Password: testPassword}, wantCode: http.StatusOK, wantRedirect: user.DashboardAdmin},
		{name: "Teacher", data: LoginRequest{Username: "lucho", Password: testPassword}, wantCode: http.StatusOK, wantRedirect: user.DashboardTeacher},
		{name: "Aide", data: LoginRequest{Username: "maria", Password: testPassword}, wantCode: http.StatusOK, wantRedirect: user.DashboardAide},
		{name: "Student by email", data: LoginRequest{Username: "pepe@colegio.pe", Password: testPassword}, wantCode: http.StatusOK, wantRedirect: user.DashboardStudent},
		{name: "Invalid role", data: LoginRequest{Username: "jorge", Password: testPassword}, wantCode: http.StatusBadRequest, wantErr: "invalid role"},
		{name: "Wrong password", data: LoginRequest{Username: "rosa", Password: "nope"}, wantCode: http.StatusBadRequest, wantErr: "authentication failed"},
		{name: "Unknown user", data: LoginRequest{Username: "ghost", Password: testPassword}, wantCode: http.StatusBadRequest, wantErr: "authentication failed"},
		{name: "Deactivated", data: LoginRequest{Username: "naughty", Password: testPassword}, wantCode: http.StatusForbidden, wantErr: "account deactivated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/v1/users/login", "", tt.data)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorOf(t, rec))
				return
			}

			var resp LoginResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.wantRedirect, resp.Redirect)

			claims := new(Claims)
			_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(app.conf.SecretKey), nil
			})
			require.NoError(t, err)
			assert.Equal(t, app.conf.AppName, claims.Issuer)
			assert.Equal(t, claims.IssuedAt, claims.OrigIssuedAt)
		})
	}

	t.Run("Sets last login", func(t *testing.T) {
		usr, err := app.usrSvc.GetByUsernameOrEmail(context.Background(), "rosa")
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero())
	})
}

func Test_userApi_login_validation(t *testing.T) {
	app := setup(t)

	rec := app.do(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var fields map[string]string
	decode(t, rec, &fields)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "password")
}

func Test_userApi_login_rateLimit(t *testing.T) {
	app := setup(t, func(conf *core.Config) {
		conf.Server.LoginRateLimit = 2
		conf.Server.LoginRateWindow = time.Minute
	})
	data := LoginRequest{Username: "ghost", Password: testPassword}

	for i := 0; i < 2; i++ {
		rec := app.do(t, http.MethodPost, "/v1/users/login", "", data)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := app.do(t, http.MethodPost, "/v1/users/login", "", data)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	teacher := app.createUser(t, "lucho", true, user.RoleTeacher)

	rec := app.do(t, http.MethodGet, "/v1/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing or malformed jwt", errorOf(t, rec))

	rec = app.do(t, http.MethodGet, "/v1/users/me", "invalid", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/users/me", app.token(t, teacher), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp MeResponse
	decode(t, rec, &resp)
	assert.Equal(t, teacher.ID, resp.User.ID)
	assert.Equal(t, user.DashboardTeacher, resp.Dashboard)
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)
	rosa := app.createUser(t, "rosa", true, user.RoleAdmin)
	naughty := app.createUser(t, "naughty", false, user.RoleStudent)

	origNow := nowFunc
	t.Cleanup(func() { nowFunc = origNow })

	past := time.Now().Add(-app.conf.Server.JWTRefreshExpirationDelta - time.Minute)
	nowFunc = func() time.Time { return past }
	expiredRefresh := app.token(t, rosa)
	nowFunc = origNow

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantErr  string
	}{
		{name: "Valid", token: app.token(t, rosa), wantCode: http.StatusOK},
		{name: "Deactivated", token: app.token(t, naughty), wantCode: http.StatusForbidden, wantErr: "account deactivated"},
		{name: "Refresh expired", token: expiredRefresh, wantCode: http.StatusForbidden, wantErr: "refresh has expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/v1/users/token-refresh", tt.token, nil)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorOf(t, rec))
				return
			}
			var resp LoginResponse
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
		})
	}
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "rosa", true, user.RoleAdmin)
	teacher := app.createUser(t, "lucho", true, user.RoleTeacher)
	adminToken := app.token(t, admin)

	newUser := func(uname string, roles ...string) user.NewUser {
		return user.NewUser{
			Name:            "Nuevo " + uname,
			Username:        uname,
			Email:           uname + "@colegio.pe",
			Password:        "Xq7#kLm2!zR",
			PasswordConfirm: "Xq7#kLm2!zR",
			Roles:           roles,
		}
	}

	tests := []struct {
		name       string
		token      string
		data       user.NewUser
		wantCode   int
		wantFields []string
	}{
		{name: "Auth required", data: newUser("carla", user.RoleStudent), wantCode: http.StatusUnauthorized},
		{name: "Admin required", token: app.token(t, teacher), data: newUser("carla", user.RoleStudent), wantCode: http.StatusForbidden},
		{name: "Valid", token: adminToken, data: newUser("carla", user.RoleStudent), wantCode: http.StatusCreated},
		{name: "Duplicate username", token: adminToken, data: newUser("carla", user.RoleStudent), wantCode: http.StatusBadRequest, wantFields: []string{"username"}},
		{name: "Unknown role", token: adminToken, data: newUser("diego", "janitor:"), wantCode: http.StatusBadRequest, wantFields: []string{"roles"}},
		{name: "Role above own", token: adminToken, data: newUser("elena", user.RoleAdminOwner), wantCode: http.StatusBadRequest, wantFields: []string{"roles"}},
		{
			name: "Missing fields", token: adminToken, data: user.NewUser{}, wantCode: http.StatusBadRequest,
			wantFields: []string{"name", "password", "password_confirm", "roles"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/v1/users/register", tt.token, tt.data)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			switch {
			case tt.wantCode == http.StatusCreated:
				var usr user.User
				decode(t, rec, &usr)
				assert.NotEmpty(t, usr.ID)
				assert.Equal(t, tt.data.Username, usr.Username)
				assert.True(t, usr.Active())
			case len(tt.wantFields) > 0:
				var fields map[string]string
				decode(t, rec, &fields)
				for _, f := range tt.wantFields {
					assert.Contains(t, fields, f)
				}
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "rosa", true, user.RoleAdmin)
	app.createUser(t, "lucho", true, user.RoleTeacher)
	app.createUser(t, "pepe", true, user.RoleStudent)
	app.createUser(t, "naughty", false, user.RoleStudent)
	adminToken := app.token(t, admin)

	usernames := func(t *testing.T, path string) []string {
		rec := app.do(t, http.MethodGet, path, adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var users []user.User
		decode(t, rec, &users)
		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.Username)
		}
		return names
	}

	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "ordering=username", path: "/v1/users?ordering=username", want: []string{"lucho", "naughty", "pepe", "rosa"}},
		{name: "ordering=-username", path: "/v1/users?ordering=-username", want: []string{"rosa", "pepe", "naughty", "lucho"}},
		{name: "search", path: "/v1/users?search=UCH&ordering=username", want: []string{"lucho"}},
		{name: "role", path: "/v1/users?role=student:&ordering=username", want: []string{"naughty", "pepe"}},
		{name: "search (unknown)", path: "/v1/users?search=zzz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usernames(t, tt.path))
		})
	}

	t.Run("roles", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/users/roles", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var roles []user.Role
		decode(t, rec, &roles)
		assert.Equal(t, user.Roles, roles)
	})
}
