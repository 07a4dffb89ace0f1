package bulk_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/ddlstore/internal/bulk"
	"github.com/vvka-141/ddlstore/internal/logging"
	"github.com/vvka-141/ddlstore/internal/record"
	"github.com/vvka-141/ddlstore/internal/schema"
	testhelpers "github.com/vvka-141/ddlstore/internal/testing"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

const userDDL = `CREATE TABLE [dbo].[User] ([UserId] BIGINT IDENTITY(1,1) NOT NULL, [Email] VARCHAR(255) NOT NULL, [Age] INT NULL, [IsDisabled] BIT NOT NULL DEFAULT 0)`

type fakeAcquirer struct {
	conn  *testhelpers.FakeConn
	err   error
	calls int
}

func (a *fakeAcquirer) Conn(ctx context.Context) (ddlstore.DBConnection, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.conn, nil
}

func userRequest(t *testing.T) bulk.Request {
	t.Helper()
	s, err := schema.Parse(userDDL, schema.WithExcluded("IsDisabled"))
	require.NoError(t, err)
	return bulk.Request{
		Schema:         s,
		Table:          pgx.Identifier{"dbo", "User"},
		FindQuery:      `SELECT * FROM "dbo"."User";`,
		IdentityColumn: "UserId",
	}
}

func newestFirst(rows ...map[string]any) func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		return testhelpers.NewRows(rows), nil
	}
}

func TestLoader_InsertMany_EmptyInputDoesNotAcquire(t *testing.T) {
	acq := &fakeAcquirer{conn: &testhelpers.FakeConn{}}
	loader := bulk.NewLoader(acq, logging.NewNullLogger())

	rows, err := loader.InsertMany(context.Background(), userRequest(t), nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.Equal(t, 0, acq.calls)
}

func TestLoader_InsertMany_CopiesAndReadsBackInInputOrder(t *testing.T) {
	conn := &testhelpers.FakeConn{
		QueryFunc: newestFirst(
			map[string]any{"UserId": int64(11), "Email": "b@x.com", "Age": nil},
			map[string]any{"UserId": int64(10), "Email": "a@x.com", "Age": int64(42)},
		),
	}
	acq := &fakeAcquirer{conn: conn}
	loader := bulk.NewLoader(acq, logging.NewNullLogger())

	rows, err := loader.InsertMany(context.Background(), userRequest(t), []record.Record{
		record.Map{"Email": "a@x.com", "Age": "42"},
		record.Map{"Email": "b@x.com", "Age": "NaN"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@x.com", rows[0]["Email"])
	assert.Equal(t, "b@x.com", rows[1]["Email"])
	assert.Equal(t, 1, acq.calls)

	calls := conn.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, `COPY "dbo"."User"`, calls[0].SQL)
	assert.Equal(t, []string{"Email", "Age"}, calls[0].Args[0])
	assert.Equal(t, [][]any{{"a@x.com", int64(42)}, {"b@x.com", nil}}, calls[0].Args[1])
	assert.Equal(t, `SELECT * FROM "dbo"."User" ORDER BY "UserId" DESC LIMIT 2`, calls[1].SQL)
}

func TestLoader_InsertMany_MissingFieldsBecomeNull(t *testing.T) {
	conn := &testhelpers.FakeConn{QueryFunc: newestFirst(map[string]any{"UserId": int64(1)})}
	loader := bulk.NewLoader(&fakeAcquirer{conn: conn}, logging.NewNullLogger())

	_, err := loader.InsertMany(context.Background(), userRequest(t), []record.Record{record.Map{"Age": "abc"}})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{nil, nil}}, conn.Calls()[0].Args[1])
}

func TestLoader_InsertMany_ReshapesRows(t *testing.T) {
	conn := &testhelpers.FakeConn{QueryFunc: newestFirst(
		map[string]any{"UserId": int64(1), "Manager.Name": "boss"},
	)}
	loader := bulk.NewLoader(&fakeAcquirer{conn: conn}, logging.NewNullLogger())

	rows, err := loader.InsertMany(context.Background(), userRequest(t), []record.Record{record.Map{"Email": "a@x.com"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Name": "boss"}, rows[0]["Manager"])

	req := userRequest(t)
	req.Reshape = func(m map[string]any) map[string]any { return m }
	conn.QueryFunc = newestFirst(map[string]any{"UserId": int64(1), "Manager.Name": "boss"})
	rows, err = loader.InsertMany(context.Background(), req, []record.Record{record.Map{"Email": "a@x.com"}})
	require.NoError(t, err)
	assert.Equal(t, "boss", rows[0]["Manager.Name"])
}

func TestLoader_InsertOne(t *testing.T) {
	conn := &testhelpers.FakeConn{QueryFunc: newestFirst(
		map[string]any{"UserId": int64(7), "Email": "a@x.com"},
	)}
	loader := bulk.NewLoader(&fakeAcquirer{conn: conn}, logging.NewNullLogger())

	row, err := loader.InsertOne(context.Background(), userRequest(t), record.Map{"Email": "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), row["UserId"])
	assert.Equal(t, `SELECT * FROM "dbo"."User" ORDER BY "UserId" DESC LIMIT 1`, conn.Calls()[1].SQL)
}

func TestLoader_ErrorsAreStatementFailures(t *testing.T) {
	driverErr := errors.New("relation does not exist")

	t.Run("copy", func(t *testing.T) {
		conn := &testhelpers.FakeConn{
			CopyFromFunc: func(ctx context.Context, table pgx.Identifier, columns []string, rows [][]any) (int64, error) {
				return 0, driverErr
			},
		}
		loader := bulk.NewLoader(&fakeAcquirer{conn: conn}, logging.NewNullLogger())
		_, err := loader.InsertMany(context.Background(), userRequest(t), []record.Record{record.Map{}})
		assert.ErrorIs(t, err, ddlstore.ErrStatementFailed)
		assert.ErrorIs(t, err, driverErr)
	})

	t.Run("read back", func(t *testing.T) {
		conn := &testhelpers.FakeConn{
			QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				return nil, driverErr
			},
		}
		loader := bulk.NewLoader(&fakeAcquirer{conn: conn}, logging.NewNullLogger())
		_, err := loader.InsertMany(context.Background(), userRequest(t), []record.Record{record.Map{}})
		assert.ErrorIs(t, err, ddlstore.ErrStatementFailed)
		assert.ErrorIs(t, err, driverErr)
	})

	t.Run("rows", func(t *testing.T) {
		conn := &testhelpers.FakeConn{
			QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
				return &testhelpers.Rows{Failure: driverErr}, nil
			},
		}
		loader := bulk.NewLoader(&fakeAcquirer{conn: conn}, logging.NewNullLogger())
		_, err := loader.InsertMany(context.Background(), userRequest(t), []record.Record{record.Map{}})
		assert.ErrorIs(t, err, driverErr)
	})
}

func TestLoader_AcquireErrorPropagates(t *testing.T) {
	acqErr := errors.Join(ddlstore.ErrConnectionFailed, errors.New("dial tcp: refused"))
	loader := bulk.NewLoader(&fakeAcquirer{err: acqErr}, logging.NewNullLogger())

	_, err := loader.InsertMany(context.Background(), userRequest(t), []record.Record{record.Map{}})
	assert.ErrorIs(t, err, ddlstore.ErrConnectionFailed)
}

func TestLoader_RejectsIncompleteRequest(t *testing.T) {
	loader := bulk.NewLoader(&fakeAcquirer{conn: &testhelpers.FakeConn{}}, logging.NewNullLogger())
	recs := []record.Record{record.Map{}}

	_, err := loader.InsertMany(context.Background(), bulk.Request{}, recs)
	assert.ErrorIs(t, err, ddlstore.ErrEmptySchema)

	req := userRequest(t)
	req.IdentityColumn = ""
	_, err = loader.InsertMany(context.Background(), req, recs)
	assert.ErrorIs(t, err, ddlstore.ErrInvalidConfig)
}

func TestReadBackQuery(t *testing.T) {
	tests := []struct {
		find string
		want string
	}{
		{`SELECT * FROM "User"`, `SELECT * FROM "User" ORDER BY "UserId" DESC LIMIT 3`},
		{"SELECT * FROM \"User\";\n", `SELECT * FROM "User" ORDER BY "UserId" DESC LIMIT 3`},
		{"  SELECT 1 ; ", `SELECT 1 ORDER BY "UserId" DESC LIMIT 3`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bulk.ReadBackQuery(tt.find, 3, "UserId"))
	}
}
