package moneta_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	_ "modernc.org/sqlite"

	"github.com/moneta/moneta/moneta"
	"github.com/moneta/moneta/moneta/config"
	"github.com/moneta/moneta/moneta/request"
	"github.com/moneta/moneta/moneta/search"
)

func seed(t *testing.T, path string, rows int) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	assert.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE accounts (account_number INTEGER, currency TEXT, display_name TEXT)`)
	assert.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE currencies (code TEXT, name TEXT)`)
	assert.NoError(t, err)
	_, err = db.Exec(`INSERT INTO currencies VALUES ('EUR', 'Euro'), ('USD', 'US Dollar')`)
	assert.NoError(t, err)
	for i := 0; i < rows; i++ {
		_, err := db.Exec(`INSERT INTO accounts VALUES (?, ?, ?)`, 1000+i, []string{"EUR", "USD"}[i%2], fmt.Sprintf("Account %d", i))
		assert.NoError(t, err)
	}
}

func openService(t *testing.T) *moneta.Service {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	seed(t, dbPath, 92)

	cfg, err := config.Parse([]byte(fmt.Sprintf(`
dataSources:
  ledger:
    backend: sqlite
    dsn: %q
topics:
  - name: account
    pluralName: accounts
    dataSource: ledger
    table: accounts
    keyFields:
      - {column: account_number, dataType: NUMERIC}
    aliases:
      account_number: accountNumber
  - name: currency
    pluralName: currencies
    dataSource: ledger
    table: currencies
    keyFields:
      - {column: code, dataType: STRING}
  - name: ghost
    dataSource: ledger
    table: ghosts
`, dbPath)))
	assert.NoError(t, err)

	svc, err := moneta.Open(context.Background(), cfg, moneta.DefaultOptions())
	assert.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, svc.Close()) })
	return svc
}

func coords(path string, params url.Values) request.Coordinates {
	return request.Coordinates{Path: path, Params: params}
}

func TestService_Search(t *testing.T) {
	svc := openService(t)
	ctx := context.Background()

	res, err := svc.Search(ctx, coords("/moneta/topic/accounts/1042", nil), moneta.SearchOptions{})
	assert.NoError(t, err)
	assert.Equal(t, "account", res.Request.Topic)
	assert.Equal(t, 1, len(res.Records))
	assert.Equal(t, []string{"accountNumber", "currency", "display_name"}, res.Records[0].Columns())
	n, _ := res.Records[0].Get("accountNumber")
	assert.Equal(t, any(int64(1042)), n)

	res, err = svc.Search(ctx, coords("/moneta/topic/account", url.Values{"startRow": {"90"}}), moneta.SearchOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(res.Records))

	res, err = svc.Search(ctx, coords("/account", url.Values{"maxRows": {"10"}}), moneta.SearchOptions{Explain: true})
	assert.NoError(t, err)
	assert.Equal(t, 10, len(res.Records))
	assert.Equal(t, `SELECT * FROM "accounts"`, res.ExplainSQL)

	res, err = svc.Search(ctx, coords("/currency/USD", nil), moneta.SearchOptions{})
	assert.NoError(t, err)
	name, _ := res.Records[0].Get("name")
	assert.Equal(t, any("US Dollar"), name)
}

func TestService_SearchErrors(t *testing.T) {
	svc := openService(t)
	ctx := context.Background()

	tests := []struct {
		path   string
		params url.Values
		kind   moneta.ErrorKind
	}{
		{"/moneta/topic", nil, moneta.ErrMissingTopic},
		{"/moneta/topic/loans", nil, moneta.ErrUnknownTopic},
		{"/account", url.Values{"maxRows": {"ten"}}, moneta.ErrInvalidParameter},
		{"/account/1/2", nil, moneta.ErrUnconfiguredKey},
		{"/account/x", nil, moneta.ErrInvalidKeyValue},
		{"/ghost", nil, moneta.ErrSQL},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := svc.Search(ctx, coords(tt.path, tt.params), moneta.SearchOptions{})
			assert.True(t, moneta.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestService_SearchCanceled(t *testing.T) {
	svc := openService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Search(ctx, coords("/account", nil), moneta.SearchOptions{})
	assert.True(t, moneta.IsKind(err, moneta.ErrCanceled), "got %v", err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err = svc.Search(ctx, coords("/account", nil), moneta.SearchOptions{})
	assert.True(t, moneta.IsKind(err, moneta.ErrCanceled), "got %v", err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestService_Execute(t *testing.T) {
	svc := openService(t)

	req, err := svc.Derive(coords("/accounts", nil))
	assert.NoError(t, err)
	res, err := svc.Execute(context.Background(), req, moneta.SearchOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 92, len(res.Records))

	_, err = svc.Execute(context.Background(), search.SearchRequest{Topic: "loan", Criteria: search.And()}, moneta.SearchOptions{})
	assert.True(t, moneta.IsKind(err, moneta.ErrUnknownTopic))
}

func TestService_Metadata(t *testing.T) {
	svc := openService(t)

	assert.Equal(t, []string{"ledger"}, svc.DataSources())
	assert.Equal(t, 3, len(svc.Topics()))
	assert.Equal(t, 3, svc.Registry().Len())
	assert.Equal(t, 0, len(svc.Ping(context.Background())))
}

func TestOpen_ConnectFailure(t *testing.T) {
	cfg, err := config.Parse([]byte(`
dataSources:
  broken:
    backend: sqlite
    driver: not-registered
    dsn: /tmp/broken.db
topics:
  - {name: a, dataSource: broken, table: a}
`))
	assert.NoError(t, err)

	_, err = moneta.Open(context.Background(), cfg, moneta.DefaultOptions())
	assert.True(t, moneta.IsKind(err, moneta.ErrIO), "got %v", err)
}
