package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/brighttutor/brightdesk/apps/api/echo"
	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/country"
	"github.com/brighttutor/brightdesk/core/registration"
	"github.com/brighttutor/brightdesk/core/task"
	"github.com/brighttutor/brightdesk/core/user"
	"github.com/brighttutor/brightdesk/services/email"
	"github.com/brighttutor/brightdesk/services/logger"
	"github.com/brighttutor/brightdesk/storage/database/inmem"
)

var (
	bgCtx = context.Background()

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

type fixture struct {
	conf     *core.Config
	app      *Server
	deps     ServerDeps
	usrRepo  user.Repository
	usrSvc   user.ServiceInterface
	taskSvc  task.ServiceInterface
	hub      *task.Hub
	mailSvc  *emailsvc.ConsoleServiceMock
	logs     *bytes.Buffer
	validate *validator.Validate
}

func setup(t *testing.T) *fixture {
	t.Helper()
	conf := core.NewTestConfig()
	conf.Registration.ReviewersEmail = "reviewers@brighttutor.et"

	logs := new(bytes.Buffer)
	logger := logsvc.NewRollbarLogger(log.New(logs, "", 0), conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	registration.InitValidators(validate, translator)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	hub := task.NewHub()
	t.Cleanup(hub.Close)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewServiceMock(conf, usrRepo, mailSvc, validate)
	taskSvc := task.NewService(inmemdb.NewTaskRepository(db), hub, validate, logger)
	dir := country.NewStaticDirectory()
	store := registration.NewStore(conf.Registration.DraftTTL)
	regSvc := registration.NewService(conf, store, dir, validate, mailSvc, logger)

	// set up server
	deps := ServerDeps{
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		TaskSvc:         taskSvc,
		RegistrationSvc: regSvc,
		Countries:       dir,
		DisableReqLogs:  true,
	}
	app := NewServer(conf, deps)

	return &fixture{
		conf:     conf,
		app:      app,
		deps:     deps,
		usrRepo:  usrRepo,
		usrSvc:   usrSvc,
		taskSvc:  taskSvc,
		hub:      hub,
		mailSvc:  mailSvc,
		logs:     logs,
		validate: validate,
	}
}

func (f *fixture) createUser(t *testing.T, email, pwd string, isActive bool) user.User {
	t.Helper()
	usr, err := f.usrSvc.SignUp(bgCtx, user.Credentials{Email: email, Password: pwd})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	if !isActive {
		if err = f.usrSvc.SetActive(bgCtx, email, false); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
		usr.IsActive = false
	}
	return usr
}

func (f *fixture) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(f.conf, GetUserClaims(f.conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (f *fixture) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	f.app.ServeHTTP(rec, req)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
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

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, f *fixture, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			f.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
