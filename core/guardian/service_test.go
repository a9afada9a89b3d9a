package guardian_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/guardian"
	sqlxrepos "github.com/trezcool/enrollment/storage/database/sqlx"
	"github.com/trezcool/enrollment/testutil"
)

func TestService(t *testing.T) {
	db := testutil.PrepareDB(t)
	validate, translator := testutil.NewValidator()
	svc := guardian.NewService(sqlxrepos.NewGuardianRepository(db), validate, translator)
	ctx := context.Background()

	ng := testutil.NewGuardian("  0012-3456 ", "Jane.Doe@Test.cd")
	ng.DocumentType = "National_ID"
	created, err := svc.Create(ctx, ng)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, core.DocNationalID, created.DocumentType)
	assert.Equal(t, "0012-3456", created.DocumentNumber)
	assert.Equal(t, "jane.doe@test.cd", created.Email)

	t.Run("create is idempotent on the document", func(t *testing.T) {
		again := testutil.NewGuardian("0012-3456", "")
		again.FirstName = "Someone"
		g, err := svc.Create(ctx, again)
		require.NoError(t, err)
		assert.Equal(t, created.ID, g.ID)
		assert.Equal(t, "Jane", g.FirstName)
	})

	t.Run("same number, other document type", func(t *testing.T) {
		ng := testutil.NewGuardian("0012-3456", "")
		ng.DocumentType = core.DocPassport
		g, err := svc.Create(ctx, ng)
		require.NoError(t, err)
		assert.NotEqual(t, created.ID, g.ID)
	})

	t.Run("find by document", func(t *testing.T) {
		g, err := svc.FindByDocument(ctx, "NATIONAL_ID", " 0012-3456")
		require.NoError(t, err)
		assert.Equal(t, created.ID, g.ID)

		_, err = svc.FindByDocument(ctx, core.DocForeignID, "0012-3456")
		assert.True(t, core.IsNotFound(err), "got %v", err)
	})

	t.Run("get by id", func(t *testing.T) {
		g, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.FullName(), g.FullName())

		_, err = svc.GetByID(ctx, 999)
		var nfErr *core.NotFoundError
		require.ErrorAs(t, err, &nfErr)
		assert.Equal(t, guardian.Entity, nfErr.Entity)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Create(ctx, guardian.NewGuardian{DocumentType: "voter_card", Email: "nope"})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		fields := make([]string, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			fields = append(fields, f.Field)
		}
		assert.ElementsMatch(t, []string{"first_name", "last_name", "document_type", "document_number", "email"}, fields)
	})
}
