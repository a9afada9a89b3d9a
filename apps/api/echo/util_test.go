package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	echoapi "github.com/trezcool/enrollment/apps/api/echo"
	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/enrollment"
	"github.com/trezcool/enrollment/core/guardian"
	"github.com/trezcool/enrollment/core/school"
	"github.com/trezcool/enrollment/core/student"
	emailsvc "github.com/trezcool/enrollment/services/email"
	sqlxrepos "github.com/trezcool/enrollment/storage/database/sqlx"
	"github.com/trezcool/enrollment/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	server        *echoapi.Server
	token         string
	schoolRepo    school.Repository
	guardianRepo  guardian.Repository
	studentRepo   student.Repository
	enrollmentSvc enrollment.Service
}

func setup(t *testing.T) testApp {
	conf := testutil.NewConfig(t)
	logger := testutil.NewLogger(conf)
	db := testutil.PrepareDB(t, conf)
	validate, translator := testutil.NewValidator()

	app := testApp{
		schoolRepo:   sqlxrepos.NewSchoolRepository(db),
		guardianRepo: sqlxrepos.NewGuardianRepository(db),
		studentRepo:  sqlxrepos.NewStudentRepository(db),
	}
	app.enrollmentSvc = enrollment.NewService(
		db,
		enrollment.Repositories{
			Enrollment: sqlxrepos.NewEnrollmentRepository(db),
			School:     app.schoolRepo,
			Guardian:   app.guardianRepo,
			Student:    app.studentRepo,
		},
		emailsvc.NewConsoleServiceMock(conf, logger),
		validate,
		translator,
	)

	app.server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		SchoolSvc:      school.NewService(db, app.schoolRepo, validate, translator),
		GuardianSvc:    guardian.NewService(app.guardianRepo, validate, translator),
		StudentSvc:     student.NewService(db, app.studentRepo, validate, translator),
		EnrollmentSvc:  app.enrollmentSvc,
		DisableReqLogs: true,
	})

	token, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, core.Actor{ID: "42", Username: "frontdesk"}))
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	app.token = token
	return app
}

func (app testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			token := tt.token
			if token == "" {
				token = app.token
			} else if token == "-" {
				token = ""
			}
			req, rec := newAuthRequest(method, tt.path, token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string // "-" for none
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
