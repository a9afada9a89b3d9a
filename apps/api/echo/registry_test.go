package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/enrollment/testutil"
)

func Test_registryApi(t *testing.T) {
	app := setup(t)
	g := testutil.CreateGuardian(t, app.guardianRepo, "G-1", "jane@test.cd")
	s := testutil.CreateStudent(t, app.studentRepo, "S-1")

	// stored timestamps are compared as read back
	g, err := app.guardianRepo.GetGuardianByID(context.Background(), g.ID)
	require.NoError(t, err)
	s, err = app.studentRepo.GetStudentByID(context.Background(), s.ID)
	require.NoError(t, err)

	app.run(t, []httpTest{
		{name: "guardian", path: fmt.Sprintf("/v1/guardians/%d", g.ID), wantCode: http.StatusOK, wantData: marchallObj(t, g)},
		{name: "unknown guardian", path: "/v1/guardians/999", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "guardian 999 not found"})},
		{
			name: "find guardian", path: "/v1/guardians?document_type=national_id&document_number=G-1",
			wantCode: http.StatusOK, wantData: marchallObj(t, g),
		},
		{
			name: "find guardian: missing params", path: "/v1/guardians?document_number=G-1",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"document_type": "this field is required"}),
		},
		{name: "find guardian: no match", path: "/v1/guardians?document_type=passport&document_number=G-1", wantCode: http.StatusNotFound},
		{name: "student", path: fmt.Sprintf("/v1/students/%d", s.ID), wantCode: http.StatusOK, wantData: marchallObj(t, s)},
		{name: "find student", path: "/v1/students?document_number=S-1", wantCode: http.StatusOK, wantData: marchallObj(t, s)},
		{
			name: "find student: missing param", path: "/v1/students",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"document_number": "this field is required"}),
		},
		{name: "unknown student", path: "/v1/students/999", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student 999 not found"})},
	})
}
