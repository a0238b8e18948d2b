package echoapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/aula/core/group"
	"github.com/trezcool/aula/core/user"
	exportsvc "github.com/trezcool/aula/services/export"
)

func Test_studentApi_query(t *testing.T) {
	app := setup(t)
	token := app.token(t, app.createUser(t, "rosa", true, user.RoleAdmin))

	t.Run("Admin required", func(t *testing.T) {
		teacher := app.token(t, app.createUser(t, "lucho", true, user.RoleTeacher))
		rec := app.do(t, http.MethodGet, "/v1/students", teacher, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("JSON", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/students?grade=5&section=B", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var students []group.Student
		decode(t, rec, &students)
		assert.Equal(t, []string{"S5", "S6"}, studentIDs(students))
	})

	t.Run("XLSX", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/students?grade=5&section=A&format=xlsx", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, `attachment; filename="alumnos.xlsx"`, rec.Header().Get("Content-Disposition"))

		imp, err := exportsvc.ImportRoster(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, []string{"S1", "S2", "S3", "S4"}, studentIDs(imp.Students))
	})

	t.Run("Unsupported format", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/students?format=pdf", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_studentApi_importRoster(t *testing.T) {
	app := setup(t)
	token := app.token(t, app.createUser(t, "rosa", true, user.RoleAdmin))

	upload := func(t *testing.T, content []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		if content != nil {
			fw, err := mw.CreateFormFile("file", "roster.xlsx")
			require.NoError(t, err)
			_, err = fw.Write(content)
			require.NoError(t, err)
		}
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/students/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		return rec
	}

	t.Run("Missing file", func(t *testing.T) {
		rec := upload(t, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var fields map[string]string
		decode(t, rec, &fields)
		assert.Contains(t, fields, "file")
	})

	t.Run("Not a spreadsheet", func(t *testing.T) {
		rec := upload(t, []byte("id,first_name\nS7,Gina"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Valid", func(t *testing.T) {
		var roster bytes.Buffer
		require.NoError(t, exportsvc.WriteRoster(&roster, []group.Student{
			{ID: "S7", FirstName: "Gina", LastName: "Paredes", Email: "gina@colegio.pe", Grade: "5", Section: "B"},
			{ID: "S8", FirstName: "Hugo", LastName: "Salas", Email: "hugo@colegio.pe", Grade: "5", Section: "B"},
		}))

		rec := upload(t, roster.Bytes())
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp ImportResponse
		decode(t, rec, &resp)
		assert.Equal(t, 2, resp.Imported)
		assert.Empty(t, resp.Skipped)

		rec = app.do(t, http.MethodGet, "/v1/students?grade=5&section=B", token, nil)
		var students []group.Student
		decode(t, rec, &students)
		assert.Equal(t, []string{"S5", "S6", "S7", "S8"}, studentIDs(students))
	})
}
